package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/sedefinder/finder"
)

func loadedService(t *testing.T) *finder.Service {
	t.Helper()
	headers := []string{"SEDE", "MUNICIPIO", "COD_SEDE_DANE"}
	ds := finder.Dataset{Headers: headers}
	for _, v := range [][]string{{"Escuela Uno", "X", "111"}, {"Escuela Dos", "X", "222"}} {
		ds.Rows = append(ds.Rows, finder.Row{"SEDE": v[0], "MUNICIPIO": v[1], "COD_SEDE_DANE": v[2]})
	}
	svc := finder.NewService(finder.DefaultConfig(), nil)
	require.NoError(t, svc.Load(ds))
	return svc
}

func TestSearchWorker_DebouncesKeystrokes(t *testing.T) {
	got := make(chan finder.Response, 4)
	w := newSearchWorker(loadedService(t), finder.KindEntity, 30*time.Millisecond, func(r finder.Response) { got <- r })
	defer w.Stop()

	w.Submit("esc")
	w.Submit("escuela")
	last := w.Submit("escuela u")

	select {
	case resp := <-got:
		assert.Equal(t, last, resp.Seq)
		assert.Equal(t, "escuela u", resp.Query)
		require.Len(t, resp.Entities, 1)
		assert.Equal(t, finder.EntityKey("S:111"), resp.Entities[0].Key)
	case <-time.After(2 * time.Second):
		t.Fatal("no response delivered")
	}

	select {
	case resp := <-got:
		t.Fatalf("unexpected extra response %d", resp.Seq)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestSearchWorker_DropsStaleResponses(t *testing.T) {
	got := make(chan finder.Response, 4)
	w := newSearchWorker(loadedService(t), finder.KindCategory, time.Hour, func(r finder.Response) { got <- r })
	defer w.Stop()

	old := w.Submit("escuela")
	newer := w.Submit("escuela d")
	w.run(finder.Request{Seq: old, Kind: finder.KindEntity, Text: "escuela"})
	assert.Empty(t, got, "superseded query is not delivered")

	w.run(finder.Request{Seq: newer, Kind: finder.KindEntity, Text: "escuela d"})
	require.Len(t, got, 1)
	assert.Equal(t, newer, (<-got).Seq)

	w.run(finder.Request{Seq: newer, Kind: finder.KindEntity, Text: "escuela d"})
	assert.Empty(t, got, "a response is delivered once")
}

func TestSearchWorker_Refresh(t *testing.T) {
	got := make(chan finder.Response, 4)
	w := newSearchWorker(loadedService(t), finder.KindEntity, time.Hour, func(r finder.Response) { got <- r })
	w.Submit("escuela")
	w.Refresh("escuela")

	select {
	case resp := <-got:
		assert.Len(t, resp.Entities, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not deliver")
	}
}
