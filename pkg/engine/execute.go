package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fibron-net/fibron/pkg/audit"
	"github.com/fibron-net/fibron/pkg/command"
	"github.com/fibron-net/fibron/pkg/device"
	"github.com/fibron-net/fibron/pkg/ledger"
	"github.com/fibron-net/fibron/pkg/lock"
	"github.com/fibron-net/fibron/pkg/util"
)

// Execute runs one change intent through the selected run mode.
// Every call, on every outcome, appends exactly one audit event.
func (e *Engine) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	dev, set, err := e.Generate(req.Device, req.Action, req.Payload)
	if err != nil {
		e.logEvent(req, "", "", 0, start, err)
		return nil, err
	}
	if !dev.Enabled {
		err := fmt.Errorf("device %s is disabled in inventory: %w", dev.Name, util.ErrInvalidConfig)
		e.logEvent(req, string(dev.Vendor), "", 0, start, err)
		return nil, err
	}
	if len(set.Commands) > maxCommandsPerExecution {
		err := util.NewGenerationError(string(dev.Vendor), req.Action,
			fmt.Sprintf("%d commands exceed the per-execution limit of %d", len(set.Commands), maxCommandsPerExecution))
		e.logEvent(req, string(dev.Vendor), "", len(set.Commands), start, err)
		return nil, err
	}

	res := &Result{
		Device:   dev.Name,
		Action:   req.Action,
		RunMode:  req.RunMode,
		Commands: set.Commands,
	}

	switch req.RunMode {
	case RunModeSimulate:
		res.Transcript = renderPreview(set.Commands, "")
		res.Duration = time.Since(start)
		e.logEvent(req, string(dev.Vendor), "", len(set.Commands), start, nil)
		return res, nil

	case RunModeDryRun:
		return e.executeDryRun(req, dev, set, res, start)

	case RunModeLive:
		return e.executeLive(ctx, req, dev, set, res, start)
	}

	err = fmt.Errorf("unknown run mode %q: %w", req.RunMode, util.ErrInvalidConfig)
	e.logEvent(req, string(dev.Vendor), "", 0, start, err)
	return nil, err
}

func (e *Engine) executeDryRun(req Request, dev *device.Device, set *command.Set, res *Result, start time.Time) (*Result, error) {
	probeNote := "device reachable"
	if err := e.probe(dev.Addr(), probeTimeout); err != nil {
		probeNote = fmt.Sprintf("device unreachable: %v", err)
	} else {
		res.Reachable = true
	}

	entry := e.ledger.Register(dev.Name, string(dev.Vendor), req.Action, string(set.Category),
		req.Actor, set.Commands, set.Rollback, ledger.StatusDryRun)
	res.ChangeID = entry.ID
	res.Transcript = renderPreview(set.Commands, probeNote)
	res.Duration = time.Since(start)

	e.logEvent(req, string(dev.Vendor), entry.ID, len(set.Commands), start, nil)
	return res, nil
}

func (e *Engine) executeLive(ctx context.Context, req Request, dev *device.Device, set *command.Set, res *Result, start time.Time) (*Result, error) {
	if !req.LiveConfirm {
		err := fmt.Errorf("live execution on %s requires confirmation: %w", dev.Name, util.ErrLiveNotConfirmed)
		e.logEvent(req, string(dev.Vendor), "", len(set.Commands), start, err)
		return nil, err
	}

	handle, err := e.acquireLock(ctx, dev.Name, req.Action, req.Payload)
	if err != nil {
		e.logEvent(req, string(dev.Vendor), "", len(set.Commands), start, err)
		return nil, err
	}
	defer e.releaseLock(ctx, handle)
	res.Unprotected = handle != nil && handle.Unprotected

	entry := e.ledger.Register(dev.Name, string(dev.Vendor), req.Action, string(set.Category),
		req.Actor, set.Commands, set.Rollback, ledger.StatusInProgress)
	res.ChangeID = entry.ID

	log := util.WithExecution(dev.Name, req.Action, string(req.RunMode))

	if err := e.probe(dev.Addr(), probeTimeout); err != nil {
		cerr := util.NewConnectionError(dev.Name, dev.Addr(), err)
		e.ledger.Resolve(entry.ID, ledger.StatusFailed, cerr.Error())
		res.ErrorClass = util.Classify(cerr)
		e.logEvent(req, string(dev.Vendor), entry.ID, len(set.Commands), start, cerr)
		return res, cerr
	}
	res.Reachable = true
	dev.TouchLastSeen()

	transcript, runErr := e.runOnDevice(ctx, dev, set.Commands)
	res.Transcript = transcript

	if runErr == nil {
		e.ledger.Resolve(entry.ID, ledger.StatusApplied, "")
		res.Applied = true
		res.Duration = time.Since(start)
		log.Infof("applied %d commands", len(set.Commands))
		e.logEvent(req, string(dev.Vendor), entry.ID, len(set.Commands), start, nil)
		return res, nil
	}

	// Provisioning changes that fail midway leave the device in a
	// half-configured state; reverse them immediately when possible.
	// Only genuine command failures qualify: a checkout or dial failure
	// means the forward commands never reached the device, so there is
	// nothing to reverse and no second contact attempt is made.
	if errors.Is(runErr, util.ErrExecution) && set.Category == command.CategoryProvisioning && set.Reversible() {
		log.Warnf("execution failed, attempting automatic rollback: %v", runErr)
		rbTranscript, rbErr := e.runOnDevice(ctx, dev, set.Rollback)
		res.Transcript += rbTranscript
		if rbErr != nil {
			e.ledger.Resolve(entry.ID, ledger.StatusRollbackFailed,
				fmt.Sprintf("%v; rollback: %v", runErr, rbErr))
			log.Errorf("automatic rollback failed: %v", rbErr)
		} else {
			e.ledger.Resolve(entry.ID, ledger.StatusRolledBack, runErr.Error())
			res.RolledBack = true
			log.Info("automatic rollback applied")
		}
	} else {
		e.ledger.Resolve(entry.ID, ledger.StatusFailed, runErr.Error())
	}

	res.Duration = time.Since(start)
	res.ErrorClass = util.Classify(runErr)
	e.logEvent(req, string(dev.Vendor), entry.ID, len(set.Commands), start, runErr)
	return res, runErr
}

// Rollback reverses a previously applied change by running its stored
// rollback commands live against the device.
func (e *Engine) Rollback(ctx context.Context, deviceName, changeID, actor string) (*Result, error) {
	start := time.Now()

	entry, err := e.ledger.Get(changeID)
	if err != nil {
		return nil, err
	}
	if entry.Device != deviceName {
		return nil, fmt.Errorf("change %s does not belong to device %s: %w", changeID, deviceName, util.ErrNotFound)
	}
	if !entry.Reversible() {
		return nil, &util.RollbackError{Device: deviceName, ChangeID: changeID,
			Err: errors.New("change has no rollback commands")}
	}
	// Applied changes are the normal case; failed and rollback-failed
	// entries are the manual recovery path after an execution or
	// auto-rollback went wrong. Previews and completed rollbacks have
	// nothing left to reverse.
	switch entry.Status {
	case ledger.StatusApplied, ledger.StatusFailed, ledger.StatusRollbackFailed:
	default:
		return nil, &util.RollbackError{Device: deviceName, ChangeID: changeID,
			Err: fmt.Errorf("change is %s, nothing to roll back", entry.Status)}
	}

	dev, err := e.inventory.Device(deviceName)
	if err != nil {
		return nil, err
	}

	req := Request{Device: deviceName, Action: entry.Action, RunMode: RunModeLive, Actor: actor}
	res := &Result{
		ChangeID: changeID,
		Device:   deviceName,
		Action:   entry.Action,
		RunMode:  RunModeLive,
		Commands: entry.Rollback,
	}

	if err := e.probe(dev.Addr(), probeTimeout); err != nil {
		rerr := &util.RollbackError{Device: deviceName, ChangeID: changeID,
			Err: util.NewConnectionError(dev.Name, dev.Addr(), err)}
		e.ledger.Resolve(changeID, ledger.StatusRollbackFailed, rerr.Error())
		res.ErrorClass = util.Classify(rerr)
		e.logEvent(req, string(dev.Vendor), changeID, len(entry.Rollback), start, rerr)
		return res, rerr
	}
	res.Reachable = true

	transcript, runErr := e.runOnDevice(ctx, dev, entry.Rollback)
	res.Transcript = transcript
	res.Duration = time.Since(start)

	if runErr != nil {
		rerr := &util.RollbackError{Device: deviceName, ChangeID: changeID, Err: runErr}
		e.ledger.Resolve(changeID, ledger.StatusRollbackFailed, rerr.Error())
		res.ErrorClass = util.Classify(rerr)
		e.logEvent(req, string(dev.Vendor), changeID, len(entry.Rollback), start, rerr)
		return res, rerr
	}

	e.ledger.Resolve(changeID, ledger.StatusRolledBack, "")
	res.RolledBack = true
	e.logEvent(req, string(dev.Vendor), changeID, len(entry.Rollback), start, nil)
	return res, nil
}

// runOnDevice checks out a pooled connection and runs the commands.
// Cancellation gates the start only; a batch in flight always finishes.
func (e *Engine) runOnDevice(ctx context.Context, dev *device.Device, commands []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	conn, err := e.pool.Checkout(ctx, dev)
	if err != nil {
		return "", err
	}
	defer e.pool.Release(conn)

	return conn.Client.RunCommands(commands)
}

func (e *Engine) acquireLock(ctx context.Context, deviceName, action string, payload command.Payload) (*lock.Handle, error) {
	if e.locks == nil {
		return nil, nil
	}
	return e.locks.TryAcquire(ctx, lock.Key(deviceName, action, payload), action)
}

func (e *Engine) releaseLock(ctx context.Context, h *lock.Handle) {
	if e.locks == nil || h == nil {
		return
	}
	if err := e.locks.Release(ctx, h); err != nil {
		util.Warnf("lock release: %v", err)
	}
}

func (e *Engine) logEvent(req Request, vendor, changeID string, commandCount int, start time.Time, execErr error) {
	ev := audit.NewEvent()
	ev.Actor = req.Actor
	ev.Device = req.Device
	ev.Vendor = vendor
	ev.Action = req.Action
	ev.RunMode = string(req.RunMode)
	ev.CommandCount = commandCount
	ev.Duration = time.Since(start)
	ev.ChangeID = changeID
	ev.Success = execErr == nil
	if execErr != nil {
		ev.Error = util.Truncate(execErr.Error(), 200)
		ev.ErrorClass = util.Classify(execErr)
	}
	if err := e.audit.Log(ev); err != nil {
		util.Warnf("audit: %v", err)
	}
}


func renderPreview(commands []string, probeNote string) string {
	var b strings.Builder
	if probeNote != "" {
		fmt.Fprintf(&b, "# %s\n", probeNote)
	}
	for i, cmd := range commands {
		fmt.Fprintf(&b, "%3d  %s\n", i+1, cmd)
	}
	return b.String()
}
