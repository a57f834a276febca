package workflow

import (
	"context"

	"github.com/garyjia/monitoria/internal/domain/entity"
	domainwf "github.com/garyjia/monitoria/internal/domain/workflow"
)

type inputKey struct{}

// transitionInput carries the values guards inspect while a trigger fires
type transitionInput struct {
	requested int
	allocated *int
}

func withTransitionInput(ctx context.Context, in transitionInput) context.Context {
	return context.WithValue(ctx, inputKey{}, in)
}

func transitionInputFrom(ctx context.Context) transitionInput {
	in, _ := ctx.Value(inputKey{}).(transitionInput)
	return in
}

// allocationGuard rejects an allocation above the requested scholarships.
// Transitions without a proposed allocation pass.
func allocationGuard(ctx context.Context) error {
	in := transitionInputFrom(ctx)
	if in.allocated == nil {
		return nil
	}
	return entity.ValidateAllocation(in.requested, *in.allocated)
}

var projectMachine = newProjectBuilder()

func newProjectBuilder() domainwf.StateMachineBuilder {
	builder := domainwf.NewBuilder()

	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerRequestProfessorSignature, domainwf.StatePendingProfessorSignature).
		Permit(domainwf.TriggerSignProfessor, domainwf.StateSubmitted).
		PermitReentry(domainwf.TriggerEditContent, nil).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StatePendingProfessorSignature).
		Permit(domainwf.TriggerSignProfessor, domainwf.StateSubmitted).
		PermitReentry(domainwf.TriggerEditContent, nil).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateSubmitted).
		Permit(domainwf.TriggerRequestAdminSignature, domainwf.StatePendingAdminSignature).
		PermitReentry(domainwf.TriggerUpdateAllocation, allocationGuard).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StatePendingAdminSignature).
		PermitIf(domainwf.TriggerApprove, domainwf.StateApproved, allocationGuard).
		PermitReentry(domainwf.TriggerUpdateAllocation, allocationGuard).
		Permit(domainwf.TriggerReject, domainwf.StateRejected)

	builder.Configure(domainwf.StateApproved).
		PermitReentry(domainwf.TriggerUpdateAllocation, allocationGuard)

	// REJECTED is terminal

	return builder
}

// BuildProjectStateMachine creates a state machine for a project in initialState
func BuildProjectStateMachine(initialState domainwf.State) domainwf.StateMachine {
	return projectMachine.Build(initialState)
}
