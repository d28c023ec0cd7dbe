package finder

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	svc := NewService(DefaultConfig(), log.New(&buf, "", 0))
	return svc, &buf
}

func TestService_EmptyUntilLoaded(t *testing.T) {
	svc, _ := newTestService(t)
	assert.False(t, svc.Loaded())
	assert.Empty(t, svc.SearchEntities("escuela", 0))
	assert.Empty(t, svc.SearchCategories("docentes", 0))
	assert.Equal(t, Summary{}, svc.Summary())
	assert.Empty(t, svc.Version())

	assert.ErrorIs(t, svc.Load(Dataset{}), ErrEmptyDataset)
	assert.False(t, svc.Loaded())
}

func TestService_EndToEnd(t *testing.T) {
	svc, logs := newTestService(t)
	require.NoError(t, svc.Load(twoSchools()))
	assert.Contains(t, logs.String(), "Loaded 2 rows")
	assert.Contains(t, logs.String(), "Column INSTITUCION not found")

	got := svc.SearchEntities("escuela u", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "Escuela Uno", got[0].Record.Name())

	got = svc.SearchEntities("222", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "COD_SEDE_DANE", got[0].MatchedField)
	assert.True(t, got[0].CodeMatch)

	sel, ok := svc.SelectEntity(got[0].Key)
	require.True(t, ok)
	assert.Equal(t, 1, sel.Len())
	assert.Equal(t, "222", sel.Records[0].Value(FieldSiteCode))

	_, ok = svc.SelectEntity("S:999")
	assert.False(t, ok)
}

func TestService_SelectDuplicateKey(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Load(makeDataset([]string{"SEDE", "MUNICIPIO", "COD_SEDE_DANE", "TOTAL GENERAL"},
		[]string{"Escuela Alfa", "X", "111", "1"},
		[]string{"Escuela Alfa Norte", "X", "111", "100"},
	)))

	cards := svc.SearchEntities("escuela alfa", 0)
	require.Len(t, cards, 1)
	assert.Equal(t, EntityKey("S:111"), cards[0].Key)
	assert.Equal(t, 1, cards[0].Pos)

	sel := cards[0].Selection()
	require.Equal(t, 1, sel.Len())
	assert.Equal(t, "Escuela Alfa Norte", sel.Records[0].Name())

	sel, ok := svc.SelectEntityAt(cards[0].Key, cards[0].Pos)
	require.True(t, ok)
	assert.Equal(t, "Escuela Alfa Norte", sel.Records[0].Name())

	_, ok = svc.SelectEntityAt("S:222", 1)
	assert.False(t, ok)
	_, ok = svc.SelectEntityAt(cards[0].Key, 5)
	assert.False(t, ok)

	assert.Empty(t, EntitySuggestion{}.Selection().Records)
}

func TestService_DisplayLimit(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Load(sampleDataset()))
	assert.Len(t, svc.EntityCandidates("escuela"), 3)
	assert.Len(t, svc.SearchEntities("escuela", 0), 3)
	assert.Len(t, svc.SearchEntities("escuela", 1), 1)

	cfg := svc.Config()
	cfg.DisplayLimit = 2
	require.NoError(t, svc.UpdateConfig(cfg))
	assert.Len(t, svc.SearchEntities("escuela", 0), 2)
}

func TestService_Categories(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Load(sampleDataset()))

	cards := svc.SearchCategories("docentes", 0)
	require.Len(t, cards, 1)
	assert.Equal(t, []MunicipalityCount{{"Medellín", 2}, {"Abriaquí", 1}}, cards[0].TopMunicipalities)

	sel, ok := svc.SelectCategory(cards[0].BaseLabel)
	require.True(t, ok)
	assert.Equal(t, 3, sel.Len())
	assert.Equal(t, cards[0].Headers, sel.ExtraHeaders)

	_, ok = svc.SelectCategory("desconocida")
	assert.False(t, ok)
}

func TestService_CacheIsPerDataset(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Load(sampleDataset()))
	svc.SearchEntities("escuela", 0)
	svc.SearchEntities("escuela", 0)
	stats := svc.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, 1, stats.Entries)

	require.NoError(t, svc.Load(twoSchools()))
	assert.Equal(t, CacheStats{}, svc.CacheStats())
	got := svc.SearchEntities("escuela", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "Escuela Dos", got[0].Record.Name())
}

func TestService_UpdateConfigKeepsLatestDataset(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Load(sampleDataset()))
	path := filepath.Join(t.TempDir(), "sedes.csv")
	require.NoError(t, os.WriteFile(path, []byte("SEDE,MUNICIPIO,COD_SEDE_DANE\nEscuela Uno,X,111\n"), 0o644))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cfg := svc.Config()
			cfg.DisplayLimit = 2
			assert.NoError(t, svc.UpdateConfig(cfg))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.LoadFile(path))
		}()
	}
	wg.Wait()

	assert.Equal(t, path, svc.Source())
	assert.Equal(t, 1, svc.Index().Len())
	assert.Equal(t, 2, svc.Config().DisplayLimit)

	svc.Clear()
	require.NoError(t, svc.UpdateConfig(svc.Config()))
	assert.False(t, svc.Loaded(), "a cleared dataset stays cleared")
}

func TestService_Clear(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Load(sampleDataset()))
	svc.Clear()
	assert.False(t, svc.Loaded())
	assert.Nil(t, svc.Index())
	assert.Empty(t, svc.SearchEntities("escuela", 0))
	_, ok := svc.LookupEntity("S:105001000101")
	assert.False(t, ok)
}

func TestService_Query(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Load(sampleDataset()))

	resp := svc.Query(Request{Seq: 7, Kind: KindEntity, Text: "Escuela"})
	assert.Equal(t, uint64(7), resp.Seq)
	assert.Equal(t, "escuela", resp.Query)
	assert.Equal(t, svc.Version(), resp.Version)
	assert.Len(t, resp.Entities, 3)
	assert.Empty(t, resp.Categories)

	resp = svc.Query(Request{Seq: 8, Kind: KindCategory, Text: "estudiantes", Limit: 5})
	require.Len(t, resp.Categories, 1)
	assert.Equal(t, "Estudiantes", resp.Categories[0].BaseLabel)

	resp = svc.Query(Request{Seq: 9, Kind: "other", Text: "escuela"})
	assert.Empty(t, resp.Entities)
	assert.Empty(t, resp.Categories)
}

func TestService_SummaryAndMunicipalities(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Load(sampleDataset()))
	assert.Equal(t, 4, svc.Summary().Sites)
	assert.Equal(t, []string{"Abriaquí", "Envigado", "Medellín"}, svc.Municipalities())
	assert.Equal(t, 1, svc.FilterByMunicipality("Envigado").Len())
}

func TestService_LoadFileAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sedes.csv")
	require.NoError(t, os.WriteFile(path, []byte("MUNICIPIO,SEDE,COD_SEDE_DANE\nX,Escuela Uno,111\n"), 0o644))

	svc, _ := newTestService(t)
	require.NoError(t, svc.LoadFile(path))
	assert.Equal(t, path, svc.Source())
	first := svc.Version()
	assert.False(t, svc.LoadedAt().IsZero())

	require.NoError(t, os.WriteFile(path, []byte("MUNICIPIO,SEDE,COD_SEDE_DANE\nX,Escuela Uno,111\nY,Escuela Dos,222\n"), 0o644))
	require.NoError(t, svc.Reload())
	assert.NotEqual(t, first, svc.Version())
	assert.Equal(t, 2, svc.Index().Len())

	err := svc.LoadFile(filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 2, svc.Index().Len(), "failed load keeps the previous dataset")
}

func TestService_ReloadWithoutPath(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Error(t, svc.Reload())
}

func TestService_ConcurrentQueriesDuringReload(t *testing.T) {
	svc, _ := newTestService(t)
	require.NoError(t, svc.Load(sampleDataset()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := svc.SearchEntities("escuela", 0)
				// Either dataset is acceptable, never a mix.
				assert.Contains(t, []int{2, 3}, len(got))
			}
		}()
	}
	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			require.NoError(t, svc.Load(twoSchools()))
		} else {
			require.NoError(t, svc.Load(sampleDataset()))
		}
	}
	wg.Wait()
}
