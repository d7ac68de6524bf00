package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robustabar/robustabar/internal/types"
)

func alert(id string, p types.Priority) types.Alert {
	return types.Alert{ID: id, Priority: p}
}

func TestComputeBasicDiff(t *testing.T) {
	previous := []string{"A", "B", "C"}
	current := []types.Alert{
		alert("B", types.PriorityHigh),
		alert("C", types.PriorityLow),
		alert("D", types.PriorityCritical),
	}

	cs := Compute(previous, current)

	assert.Len(t, cs.New, 1)
	assert.Equal(t, "D", cs.New[0].ID)
	assert.Equal(t, []string{"A"}, cs.Resolved)
	assert.Equal(t, []string{"B", "C"}, cs.Unchanged)
}

func TestComputeEmptyPrevious(t *testing.T) {
	cs := Compute(nil, []types.Alert{alert("A", types.PriorityInfo)})
	assert.Len(t, cs.New, 1)
	assert.Empty(t, cs.Resolved)
	assert.Empty(t, cs.Unchanged)
}

func TestComputeEmptyCurrent(t *testing.T) {
	cs := Compute([]string{"A", "B"}, nil)
	assert.Empty(t, cs.New)
	assert.Equal(t, []string{"A", "B"}, cs.Resolved)
}

func TestComputeIdempotentCycle(t *testing.T) {
	current := []types.Alert{alert("A", types.PriorityHigh), alert("B", types.PriorityLow)}
	cs := Compute(Identifiers(current), current)
	assert.Empty(t, cs.New)
	assert.Empty(t, cs.Resolved)
	assert.Equal(t, []string{"A", "B"}, cs.Unchanged)
}

func TestComputeCollapsesDuplicateIdentifiers(t *testing.T) {
	current := []types.Alert{alert("A", types.PriorityHigh), alert("A", types.PriorityHigh)}
	cs := Compute(nil, current)
	assert.Len(t, cs.New, 1)
	assert.Equal(t, []string{"A"}, Identifiers(current))
}

func TestNotifiableFirstRunSuppression(t *testing.T) {
	newAlerts := []types.Alert{alert("A", types.PriorityCritical)}

	muted := NotifyPolicy{FirstRun: true, MinPriority: types.PriorityInfo}
	assert.Empty(t, muted.Notifiable(newAlerts))

	opted := NotifyPolicy{FirstRun: true, NotifyOnFirstRun: true, MinPriority: types.PriorityInfo}
	assert.Len(t, opted.Notifiable(newAlerts), 1)
}

func TestNotifiableThreshold(t *testing.T) {
	newAlerts := []types.Alert{
		alert("crit", types.PriorityCritical),
		alert("high", types.PriorityHigh),
		alert("med", types.PriorityMedium),
		alert("low", types.PriorityLow),
		alert("info", types.PriorityInfo),
	}

	all := NotifyPolicy{MinPriority: types.PriorityInfo}
	assert.Len(t, all.Notifiable(newAlerts), 5)

	medium := NotifyPolicy{MinPriority: types.PriorityMedium}
	got := medium.Notifiable(newAlerts)
	assert.Len(t, got, 3)
	assert.Equal(t, "med", got[2].ID)

	// Critical/High cannot be muted even by an absurd threshold.
	absurd := NotifyPolicy{MinPriority: types.PriorityCritical + 1}
	got = absurd.Notifiable(newAlerts)
	assert.Len(t, got, 2)
	assert.Equal(t, "crit", got[0].ID)
	assert.Equal(t, "high", got[1].ID)
}
