package issue_test

import (
	"testing"

	"github.com/krizos/phpanalyze/internal/span"
	"github.com/krizos/phpanalyze/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorAccumulates(t *testing.T) {
	c := issue.NewCollector()
	c.Add(issue.New(issue.UndefinedVariable, issue.Error, "undefined variable $x", span.New(1, 10, 12)))
	c.Add(issue.New(issue.RedundantCondition, issue.Warning, "condition is always true", span.New(1, 20, 30)))

	assert.Equal(t, 2, c.Len())
	assert.True(t, c.HasCode(issue.UndefinedVariable))
	assert.False(t, c.HasCode(issue.TooFewArguments))
}

func TestSortIsCanonical(t *testing.T) {
	issues := []issue.Issue{
		issue.New(issue.TooFewArguments, issue.Error, "c", span.New(2, 5, 9)),
		issue.New(issue.UndefinedVariable, issue.Error, "b", span.New(1, 50, 55)),
		issue.New(issue.ImpossibleAssignment, issue.Error, "a", span.New(1, 50, 55)),
		issue.New(issue.UndefinedMethod, issue.Error, "d", span.New(1, 10, 12)),
	}
	issue.Sort(issues)

	require.Len(t, issues, 4)
	assert.Equal(t, issue.UndefinedMethod, issues[0].Code)
	// Same span: code breaks the tie alphabetically.
	assert.Equal(t, issue.ImpossibleAssignment, issues[1].Code)
	assert.Equal(t, issue.UndefinedVariable, issues[2].Code)
	assert.Equal(t, issue.TooFewArguments, issues[3].Code)
}

func TestAnnotationsAndNotes(t *testing.T) {
	i := issue.New(issue.ParadoxicalCondition, issue.Error, "contradiction", span.New(1, 30, 40)).
		WithSecondary(span.New(1, 10, 20), "established here").
		WithNote("the clause sets cannot both hold").
		WithHelp("remove the second check")

	require.Len(t, i.Annotations, 2)
	assert.Equal(t, issue.Primary, i.Annotations[0].Kind)
	assert.Equal(t, issue.Secondary, i.Annotations[1].Kind)
	assert.Equal(t, uint32(30), i.PrimarySpan().Start.Offset)
	assert.Len(t, i.Notes, 1)
	assert.Equal(t, "remove the second check", i.Help)
}
