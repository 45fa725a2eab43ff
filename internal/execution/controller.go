package execution

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shellbook/shellbook/internal/scripts"
	"github.com/shellbook/shellbook/internal/shellplan"
	"github.com/shellbook/shellbook/internal/supervisor"
)

const (
	controllerLoggerMissingMessageConstant     = "logger not configured"
	controllerRecordsMissingMessageConstant    = "record provider not configured"
	controllerResolverMissingMessageConstant   = "shell plan resolver not configured"
	controllerSupervisorMissingMessageConstant = "process supervisor not configured"
	recordLoadErrorTemplateConstant            = "unable to load script %s: %w"
	planResolutionErrorTemplateConstant        = "unable to resolve interpreter for script %s: %w"
	runStartedLogMessageConstant               = "run started"
	runStopRequestedLogMessageConstant         = "stop requested"
	logFieldScriptIdentifierConstant           = "script_identifier"
	logFieldRunIdentifierConstant              = "run_identifier"
	logFieldProcessSignaledConstant            = "process_signaled"
)

// Controller construction errors.
var (
	// ErrControllerLoggerMissing indicates construction without a logger.
	ErrControllerLoggerMissing = errors.New(controllerLoggerMissingMessageConstant)
	// ErrControllerRecordsMissing indicates construction without a record provider.
	ErrControllerRecordsMissing = errors.New(controllerRecordsMissingMessageConstant)
	// ErrControllerResolverMissing indicates construction without a plan resolver.
	ErrControllerResolverMissing = errors.New(controllerResolverMissingMessageConstant)
	// ErrControllerSupervisorMissing indicates construction without a supervisor.
	ErrControllerSupervisorMissing = errors.New(controllerSupervisorMissingMessageConstant)
)

// RecordProvider supplies persisted script records to the controller. The
// controller only reads records; catalog writes belong to the scripts layer.
type RecordProvider interface {
	// Get returns the record with the given identifier.
	Get(recordIdentifier string) (scripts.Record, error)
}

// PlanResolver computes the interpreter invocation for a script.
type PlanResolver interface {
	// Resolve determines the interpreter invocation for the shell kind and content.
	Resolve(requestedShell shellplan.ShellKind, scriptContent string) (shellplan.ShellPlan, error)
}

// ProcessSupervisor starts and stops supervised script processes.
type ProcessSupervisor interface {
	// Start registers and spawns a run for the script.
	Start(scriptIdentifier string, resolvedPlan shellplan.ShellPlan) (supervisor.RunHandle, error)
	// Stop signals termination to the script's process if one is running.
	Stop(scriptIdentifier string) bool
}

// Controller is the public orchestration surface for script execution.
type Controller struct {
	logger            *zap.Logger
	recordProvider    RecordProvider
	planResolver      PlanResolver
	processSupervisor ProcessSupervisor
}

// NewController assembles a Controller from its collaborators.
func NewController(logger *zap.Logger, recordProvider RecordProvider, planResolver PlanResolver, processSupervisor ProcessSupervisor) (*Controller, error) {
	if logger == nil {
		return nil, ErrControllerLoggerMissing
	}
	if recordProvider == nil {
		return nil, ErrControllerRecordsMissing
	}
	if planResolver == nil {
		return nil, ErrControllerResolverMissing
	}
	if processSupervisor == nil {
		return nil, ErrControllerSupervisorMissing
	}
	return &Controller{
		logger:            logger,
		recordProvider:    recordProvider,
		planResolver:      planResolver,
		processSupervisor: processSupervisor,
	}, nil
}

// Run loads the script record, resolves its interpreter plan, and starts a
// supervised process. Failures returned here are synchronous and leave no
// registry state behind; once Start succeeds all later failures surface
// through the run's event sequence.
func (controller *Controller) Run(executionContext context.Context, scriptIdentifier string) (supervisor.RunHandle, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return supervisor.RunHandle{}, contextError
	}

	scriptRecord, recordLoadError := controller.recordProvider.Get(scriptIdentifier)
	if recordLoadError != nil {
		return supervisor.RunHandle{}, fmt.Errorf(recordLoadErrorTemplateConstant, scriptIdentifier, recordLoadError)
	}

	resolvedPlan, resolutionError := controller.planResolver.Resolve(scriptRecord.Shell, scriptRecord.Content)
	if resolutionError != nil {
		return supervisor.RunHandle{}, fmt.Errorf(planResolutionErrorTemplateConstant, scriptIdentifier, resolutionError)
	}

	runHandle, startError := controller.processSupervisor.Start(scriptIdentifier, resolvedPlan)
	if startError != nil {
		return supervisor.RunHandle{}, startError
	}

	controller.logger.Debug(
		runStartedLogMessageConstant,
		zap.String(logFieldScriptIdentifierConstant, runHandle.ScriptIdentifier),
		zap.String(logFieldRunIdentifierConstant, runHandle.RunIdentifier),
	)
	return runHandle, nil
}

// Stop delegates termination to the supervisor and reports whether a process
// was signaled. Stop never fails.
func (controller *Controller) Stop(scriptIdentifier string) bool {
	processSignaled := controller.processSupervisor.Stop(scriptIdentifier)
	controller.logger.Debug(
		runStopRequestedLogMessageConstant,
		zap.String(logFieldScriptIdentifierConstant, scriptIdentifier),
		zap.Bool(logFieldProcessSignaledConstant, processSignaled),
	)
	return processSignaled
}
