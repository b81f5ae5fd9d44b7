package chart

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"mybudget/internal/core"
)

func TestDoughnutOptionsIndependentOfInput(t *testing.T) {
	inputs := []MonthlyStatsResponse{
		{Labels: []string{"A"}, Data: []float64{1}, Colors: []string{"#111"}},
		{Labels: []string{"Food", "Rent", "X"}, Data: []float64{120.5, 800, 3}, Colors: []string{"#ff6384"}},
	}
	for _, in := range inputs {
		opts := Doughnut(in).Options
		if !opts.Responsive || opts.MaintainAspectRatio {
			t.Fatalf("unexpected sizing options: %+v", opts)
		}
		if opts.Plugins.Legend.Position != "right" || opts.Plugins.Legend.Labels.Color != "#B0B0B0" {
			t.Fatalf("unexpected legend: %+v", opts.Plugins.Legend)
		}
		if !reflect.DeepEqual(opts, DefaultOptions()) {
			t.Fatalf("options differ from defaults: %+v", opts)
		}
	}
}

func TestDoughnutDeterministic(t *testing.T) {
	in := MonthlyStatsResponse{Labels: []string{"Food", "Rent"}, Data: []float64{120.5, 800}, Colors: []string{"#ff6384", "#36a2eb"}}
	a, _ := json.Marshal(Doughnut(in))
	b, _ := json.Marshal(Doughnut(in))
	if !bytes.Equal(a, b) {
		t.Fatalf("configs differ:\n%s\n%s", a, b)
	}
}

func TestDoughnutMismatchedLengthsPassThrough(t *testing.T) {
	in := MonthlyStatsResponse{Labels: []string{"A", "B", "C"}, Data: []float64{1, 2, 3}, Colors: []string{"#111"}}
	ds := Doughnut(in).Data.Datasets[0]
	if len(ds.BackgroundColor) != 1 || len(ds.Data) != 3 {
		t.Fatalf("lengths should pass through untouched: %+v", ds)
	}
}

func TestDoughnutJSONShape(t *testing.T) {
	cfg := Doughnut(MonthlyStatsResponse{Labels: []string{"A", "B"}, Data: []float64{1, 2}, Colors: []string{"#111", "#222"}})
	raw, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"doughnut","data":{"labels":["A","B"],"datasets":[{"data":[1,2],"backgroundColor":["#111","#222"],"borderWidth":0}]},"options":{"responsive":true,"maintainAspectRatio":false,"plugins":{"legend":{"position":"right","labels":{"color":"#B0B0B0"}}}}}`
	if string(raw) != want {
		t.Fatalf("unexpected JSON:\n got %s\nwant %s", raw, want)
	}
}

func TestFromPeriodStats(t *testing.T) {
	resp := FromPeriodStats(core.PeriodStats{Totals: []core.CategoryTotal{
		{Name: "Food", Color: "#FF6384", Amount: core.Money{Cents: 12050}},
		{Name: "Rent", Color: "#36A2EB", Amount: core.Money{Cents: 80000}},
	}})
	if !reflect.DeepEqual(resp.Labels, []string{"Food", "Rent"}) ||
		!reflect.DeepEqual(resp.Data, []float64{120.5, 800}) ||
		!reflect.DeepEqual(resp.Colors, []string{"#FF6384", "#36A2EB"}) {
		t.Fatalf("unexpected response: %+v", resp)
	}

	raw, _ := json.Marshal(FromPeriodStats(core.PeriodStats{}))
	if string(raw) != `{"labels":[],"data":[],"colors":[]}` {
		t.Fatalf("empty stats should encode as empty arrays, got %s", raw)
	}
}

func TestJSONWriterAndMounts(t *testing.T) {
	doc := NewMounts(MountID)
	if _, ok := doc.ElementByID("missing"); ok {
		t.Fatalf("missing id resolved")
	}
	el, ok := doc.ElementByID(MountID)
	if !ok || el.ID() != MountID {
		t.Fatalf("mount not resolved")
	}

	var buf bytes.Buffer
	if err := NewJSONWriter(&buf).NewChart(el, Doughnut(MonthlyStatsResponse{Data: []float64{1}})); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), `"type": "doughnut"`) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}
