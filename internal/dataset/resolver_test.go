package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chavostd/internal/dataset"
	"chavostd/internal/shared/testutil"
	"chavostd/pkg/contracts/domain"
)

func TestResolveExactChannelID(t *testing.T) {
	res := dataset.Resolve(testutil.SampleRecords(), "V001")

	require.Equal(t, domain.ResolutionUnique, res.Kind)
	require.NotNil(t, res.Match)
	assert.Equal(t, "V001", res.Match.ID)
	assert.Equal(t, "Cave Martin", res.Match.Label)
	assert.Empty(t, res.Candidates)
}

func TestResolveChannelIDIsCaseSensitive(t *testing.T) {
	// "v001" misses the exact-id tier but still lands via the substring tier.
	res := dataset.Resolve(testutil.SampleRecords(), "v001")

	require.Equal(t, domain.ResolutionUnique, res.Kind)
	assert.Equal(t, "V001", res.Match.ID)
}

func TestResolveLabelCaseInsensitive(t *testing.T) {
	res := dataset.Resolve(testutil.SampleRecords(), "cave martin")

	require.Equal(t, domain.ResolutionUnique, res.Kind)
	assert.Equal(t, "V001", res.Match.ID)
}

func TestResolveSubstringAmbiguous(t *testing.T) {
	// "ma" appears in both "Cave Martin" and "Maison Dupont".
	res := dataset.Resolve(testutil.SampleRecords(), "ma")

	require.Equal(t, domain.ResolutionAmbiguous, res.Kind)
	assert.Nil(t, res.Match)
	require.Len(t, res.Candidates, 2)
	// Candidates come back sorted by id for a stable disambiguation list.
	assert.Equal(t, "V001", res.Candidates[0].ID)
	assert.Equal(t, "V003", res.Candidates[1].ID)
}

func TestResolveNoMatch(t *testing.T) {
	res := dataset.Resolve(testutil.SampleRecords(), "inconnu")

	assert.Equal(t, domain.ResolutionNone, res.Kind)
	assert.Nil(t, res.Match)
	assert.Empty(t, res.Candidates)
}

func TestResolveBlankQuery(t *testing.T) {
	assert.Equal(t, domain.ResolutionNone, dataset.Resolve(testutil.SampleRecords(), "").Kind)
	assert.Equal(t, domain.ResolutionNone, dataset.Resolve(testutil.SampleRecords(), "   ").Kind)
}

func TestResolveDeduplicatesPairs(t *testing.T) {
	// V001 appears on two rows with the same label: one candidate, not two.
	res := dataset.Resolve(testutil.SampleRecords(), "Cave Martin")

	require.Equal(t, domain.ResolutionUnique, res.Kind)
}

func TestResolveEmptyDataset(t *testing.T) {
	res := dataset.Resolve(nil, "V001")
	assert.Equal(t, domain.ResolutionNone, res.Kind)
}
