package projection_test

import (
	"testing"
	"time"

	"otrack/internal/projection"
	"otrack/internal/workorder"
)

func TestSummarize(t *testing.T) {
	now := date(t, "2024-03-01")
	withClient := func(w workorder.WorkOrder, client string) workorder.WorkOrder {
		w.Client = client
		return w
	}
	input := []workorder.WorkOrder{
		withClient(order("A", workorder.LocationINCO, 25, map[string]time.Time{"Corte": date(t, "2024-01-01")}), "Acme"),
		withClient(order("B", workorder.LocationANTI, 50, nil), "acme "),
		withClient(order("C", workorder.LocationINCO, 0, nil), "Beta"),
		withClient(order("D", workorder.LocationArchived, 100, map[string]time.Time{"Corte": date(t, "2023-01-01")}), "Gamma"),
	}

	s := projection.Summarize(projection.Partition(input), now, projection.Options{TopClients: 5})
	if s.Total != 4 || s.InProgress != 3 || s.Completed != 1 {
		t.Fatalf("unexpected totals %+v", s)
	}
	if s.ByLocation[workorder.LocationINCO] != 2 || s.ByLocation[workorder.LocationANTI] != 1 {
		t.Fatalf("unexpected location counts %v", s.ByLocation)
	}
	if got := ots(s.Delayed); !equalStrings(got, []string{"A"}) {
		t.Fatalf("delayed = %v (archived orders must be excluded)", got)
	}
	if len(s.Clients) != 2 || s.Clients[0].Client != "Acme" || s.Clients[0].Count != 2 || s.Clients[1].Client != "Beta" {
		t.Fatalf("unexpected client counts %+v", s.Clients)
	}
}

func TestCountByClientLimit(t *testing.T) {
	var input []workorder.WorkOrder
	for _, c := range []string{"a", "b", "c", "a"} {
		w := order("X", workorder.LocationINCO, 0, nil)
		w.Client = c
		input = append(input, w)
	}
	got := projection.CountByClient(input, 2)
	if len(got) != 2 || got[0].Count != 2 || got[1].Client != "b" {
		t.Fatalf("CountByClient = %+v", got)
	}
}

func TestComputeCycleTimes(t *testing.T) {
	archived := []workorder.WorkOrder{
		order("A", workorder.LocationArchived, 100, map[string]time.Time{
			"Recepcion": date(t, "2024-01-01"),
			"Anticorr":  date(t, "2024-01-21"),
			"Despacho":  date(t, "2024-02-10"),
		}),
		order("B", workorder.LocationArchived, 100, map[string]time.Time{
			"Corte":    date(t, "2024-01-01"),
			"Anticorr": date(t, "2024-01-11"),
			"Despacho": date(t, "2024-01-21"),
		}),
	}
	ct := projection.ComputeCycleTimes(archived)
	if ct.INCO == nil || *ct.INCO != 15 {
		t.Fatalf("INCO average = %v", ct.INCO)
	}
	if ct.ANTI == nil || *ct.ANTI != 15 {
		t.Fatalf("ANTI average = %v", ct.ANTI)
	}
	if ct.Overall == nil || *ct.Overall != 30 {
		t.Fatalf("Overall average = %v", ct.Overall)
	}

	if empty := projection.ComputeCycleTimes(nil); empty.INCO != nil || empty.ANTI != nil || empty.Overall != nil {
		t.Fatalf("expected nil averages, got %+v", empty)
	}
}
