package simplepir

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exo-explore/private-search/internal/matrix"
)

func seededRand(t *testing.T) *rand.Rand {
	t.Helper()
	var seed [32]byte
	seed[0] = 42
	return matrix.NewRandom(seed)
}

func randomDB(rng *rand.Rand, m uint64, p uint64) *matrix.Matrix {
	db := matrix.New(m, m)
	for i := uint64(0); i < m; i++ {
		row := make([]uint64, m)
		for j := range row {
			row[j] = rng.Uint64() % p
		}
		db.SetRow(i, row)
	}
	return db
}

func TestRoundTripOverRandomDBs(t *testing.T) {
	for _, m := range []uint64{8, 16, 32, 64, 128} {
		rng := seededRand(t)
		params, err := GenParams(rng, m, DefaultN, DefaultL)
		require.NoError(t, err)

		db := NewDatabase(randomDB(rng, m, params.P))
		h := GenHint(params, db)

		for i := uint64(0); i < m; i++ {
			secret, cq, err := Query(rng, i, params)
			require.NoError(t, err)

			ca, err := Answer(cq, db)
			require.NoError(t, err)

			row := RecoverRow(secret, h, ca, cq, params)
			assert.Equal(t, db.M.Row(i), row, "mismatch at row %d for m=%d", i, m)
		}
	}
}

func TestGenHintIsDeterministic(t *testing.T) {
	rng := seededRand(t)
	params, err := GenParams(rng, 16, DefaultN, DefaultL)
	require.NoError(t, err)
	db := NewDatabase(randomDB(rng, 16, params.P))

	h1 := GenHint(params, db)
	h2 := GenHint(params, db)
	assert.True(t, h1.Equal(h2))
}

func TestQueryIndependenceSameRow(t *testing.T) {
	rng := seededRand(t)
	const m = 16
	params, err := GenParams(rng, m, DefaultN, DefaultL)
	require.NoError(t, err)
	db := NewDatabase(randomDB(rng, m, params.P))
	h := GenHint(params, db)

	s1, cq1, err := Query(rng, 3, params)
	require.NoError(t, err)
	s2, cq2, err := Query(rng, 3, params)
	require.NoError(t, err)

	assert.NotEqual(t, cq1, cq2, "two queries for the same index should produce different ciphertexts")

	ca1, err := Answer(cq1, db)
	require.NoError(t, err)
	ca2, err := Answer(cq2, db)
	require.NoError(t, err)

	row1 := RecoverRow(s1, h, ca1, cq1, params)
	row2 := RecoverRow(s2, h, ca2, cq2, params)
	assert.Equal(t, row1, row2)
	assert.Equal(t, db.M.Row(3), row1)
}

func TestQueryRejectsOutOfBoundsIndex(t *testing.T) {
	rng := seededRand(t)
	params, err := GenParams(rng, 8, DefaultN, DefaultL)
	require.NoError(t, err)

	_, _, err = Query(rng, 8, params)
	require.Error(t, err)
	var boundsErr *BoundsError
	require.ErrorAs(t, err, &boundsErr)
}

func TestGenParamsRejectsBadEll(t *testing.T) {
	rng := seededRand(t)
	_, err := GenParams(rng, 8, DefaultN, 64)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestAnswerRejectsWrongLengthQuery(t *testing.T) {
	rng := seededRand(t)
	params, err := GenParams(rng, 8, DefaultN, DefaultL)
	require.NoError(t, err)
	db := NewDatabase(randomDB(rng, 8, params.P))

	_, err = Answer(make([]uint64, 3), db)
	require.Error(t, err)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

func TestIdempotentSetupReconnect(t *testing.T) {
	rng := seededRand(t)
	const m = 16
	params, err := GenParams(rng, m, DefaultN, DefaultL)
	require.NoError(t, err)
	db := NewDatabase(randomDB(rng, m, params.P))
	h := GenHint(params, db)

	for attempt := 0; attempt < 3; attempt++ {
		secret, cq, err := Query(rng, 5, params)
		require.NoError(t, err)
		ca, err := Answer(cq, db)
		require.NoError(t, err)
		row := RecoverRow(secret, h, ca, cq, params)
		assert.Equal(t, db.M.Row(5), row)
	}
}

func TestScenarioEightByEightByte(t *testing.T) {
	rng := seededRand(t)
	const m = 8
	params, err := GenParams(rng, m, DefaultN, 17)
	require.NoError(t, err)
	db := NewDatabase(randomDB(rng, m, 256))
	h := GenHint(params, db)

	for i := uint64(0); i < m; i++ {
		secret, cq, err := Query(rng, i, params)
		require.NoError(t, err)
		ca, err := Answer(cq, db)
		require.NoError(t, err)
		row := RecoverRow(secret, h, ca, cq, params)
		assert.Equal(t, db.M.Row(i), row)
	}
}

func BenchmarkAnswer(b *testing.B) {
	if testing.Short() {
		b.Skip("skipping matrix benchmark in short mode")
	}
	var seed [32]byte
	seed[0] = 9
	rng := matrix.NewRandom(seed)

	for _, m := range []uint64{512, 1024, 2048, 4096, 8192} {
		m := m
		b.Run(fmt.Sprintf("m=%d", m), func(b *testing.B) {
			params, err := GenParams(rng, m, DefaultN, DefaultL)
			require.NoError(b, err)
			db := NewDatabase(randomDB(rng, m, params.P))
			_, cq, err := Query(rng, 0, params)
			require.NoError(b, err)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = Answer(cq, db)
			}
		})
	}
}
