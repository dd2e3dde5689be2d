package timeline

import (
	"math"
	"reflect"
	"testing"
)

func testOptions() ClusterOptions {
	return DefaultClusterOptions(1920, 1080)
}

func TestCluster_Empty(t *testing.T) {
	if got := Cluster(nil, testOptions()); len(got) != 0 {
		t.Fatalf("Cluster(nil) = %v, want empty", got)
	}
	if got := Cluster([]ClickEvent{}, testOptions()); len(got) != 0 {
		t.Fatalf("Cluster(empty) = %v, want empty", got)
	}
}

func TestCluster_SingleEvent(t *testing.T) {
	events := []ClickEvent{{Time: 1.5, X: 100, Y: 200}}

	got := Cluster(events, testOptions())
	if len(got) != 1 {
		t.Fatalf("cluster count = %d, want 1", len(got))
	}
	kf := got[0]
	if kf.Time != 1.5 || kf.X != 100 || kf.Y != 200 {
		t.Errorf("keyframe = %+v, want time 1.5 at (100,200)", kf)
	}
	if kf.ID != "autozoom-0" {
		t.Errorf("keyframe ID = %q, want autozoom-0", kf.ID)
	}
	if kf.ZoomLevel != DefaultZoomLevel || kf.ActiveDuration != DefaultActiveDuration {
		t.Errorf("keyframe constants = (%v, %v), want (%v, %v)",
			kf.ZoomLevel, kf.ActiveDuration, DefaultZoomLevel, DefaultActiveDuration)
	}
}

func TestCluster_TightBurstMerges(t *testing.T) {
	// Three clicks within 5px and 0.3s of each other collapse into one
	// keyframe at the earliest time with the mean position.
	events := []ClickEvent{
		{Time: 0.0, X: 100, Y: 100},
		{Time: 0.1, X: 103, Y: 101},
		{Time: 0.3, X: 99, Y: 104},
	}

	got := Cluster(events, testOptions())
	if len(got) != 1 {
		t.Fatalf("cluster count = %d, want 1", len(got))
	}
	kf := got[0]
	if kf.Time != 0.0 {
		t.Errorf("keyframe time = %v, want 0.0", kf.Time)
	}
	wantX := (100.0 + 103.0 + 99.0) / 3
	wantY := (100.0 + 101.0 + 104.0) / 3
	if math.Abs(kf.X-wantX) > 1e-9 || math.Abs(kf.Y-wantY) > 1e-9 {
		t.Errorf("keyframe position = (%v, %v), want (%v, %v)", kf.X, kf.Y, wantX, wantY)
	}
}

func TestCluster_TimeGapSplits(t *testing.T) {
	events := []ClickEvent{
		{Time: 0.0, X: 100, Y: 100},
		{Time: 0.7, X: 100, Y: 100}, // same spot but past the 0.6s window
	}

	got := Cluster(events, testOptions())
	if len(got) != 2 {
		t.Fatalf("cluster count = %d, want 2", len(got))
	}
	if got[0].Time != 0.0 || got[1].Time != 0.7 {
		t.Errorf("keyframe times = (%v, %v), want (0.0, 0.7)", got[0].Time, got[1].Time)
	}
	if got[1].ID != "autozoom-1" {
		t.Errorf("second keyframe ID = %q, want autozoom-1", got[1].ID)
	}
}

func TestCluster_DistanceGapSplits(t *testing.T) {
	events := []ClickEvent{
		{Time: 0.0, X: 0, Y: 0},
		{Time: 0.1, X: 0, Y: 41}, // within time window but 41px from centroid
	}

	got := Cluster(events, testOptions())
	if len(got) != 2 {
		t.Fatalf("cluster count = %d, want 2", len(got))
	}
}

func TestCluster_BoundaryThresholdsMerge(t *testing.T) {
	// Exactly at both epsilons still merges: comparisons are inclusive.
	events := []ClickEvent{
		{Time: 0.0, X: 0, Y: 0},
		{Time: 0.6, X: 40, Y: 0},
	}

	got := Cluster(events, testOptions())
	if len(got) != 1 {
		t.Fatalf("cluster count = %d, want 1", len(got))
	}
}

func TestCluster_DriftChainsIntoOneCluster(t *testing.T) {
	// Each event sits close to the running centroid of the events before
	// it, so the whole drift chains into a single cluster even though the
	// first and last points are far beyond the distance threshold. The
	// single-lookback sweep never splits a chain retroactively.
	events := []ClickEvent{
		{Time: 0.0, X: 0, Y: 0},
		{Time: 0.3, X: 30, Y: 0},
		{Time: 0.6, X: 50, Y: 0},
		{Time: 0.9, X: 65, Y: 0},
	}

	got := Cluster(events, testOptions())
	if len(got) != 1 {
		t.Fatalf("cluster count = %d, want 1 (drift must chain)", len(got))
	}
	if got[0].X == 0 {
		t.Error("centroid should have shifted with the drift")
	}
}

func TestCluster_CentroidShiftCanRejectNewcomer(t *testing.T) {
	// The comparison target is the running centroid, not the last event.
	// Two members at x=0 and x=40 put the centroid at 20, so an event at
	// x=61 (41px away) opens a new cluster even though it is only 21px
	// from the latest member.
	events := []ClickEvent{
		{Time: 0.0, X: 0, Y: 0},
		{Time: 0.2, X: 40, Y: 0},
		{Time: 0.4, X: 61, Y: 0},
	}

	got := Cluster(events, testOptions())
	if len(got) != 2 {
		t.Fatalf("cluster count = %d, want 2", len(got))
	}
}

func TestCluster_SortsUnorderedInput(t *testing.T) {
	events := []ClickEvent{
		{Time: 5.0, X: 500, Y: 500},
		{Time: 0.0, X: 100, Y: 100},
		{Time: 0.1, X: 102, Y: 98},
	}

	got := Cluster(events, testOptions())
	if len(got) != 2 {
		t.Fatalf("cluster count = %d, want 2", len(got))
	}
	if got[0].Time != 0.0 || got[1].Time != 5.0 {
		t.Errorf("keyframe times = (%v, %v), want (0.0, 5.0)", got[0].Time, got[1].Time)
	}
}

func TestCluster_Deterministic(t *testing.T) {
	events := []ClickEvent{
		{Time: 0.0, X: 10, Y: 10},
		{Time: 0.0, X: 50, Y: 50}, // tie on time: stable sort keeps input order
		{Time: 1.0, X: 300, Y: 300},
		{Time: 1.2, X: 310, Y: 305},
	}

	first := Cluster(events, testOptions())
	for i := 0; i < 10; i++ {
		if got := Cluster(events, testOptions()); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed:\n got %+v\nwant %+v", i, got, first)
		}
	}
}

func TestCluster_DoesNotMutateInput(t *testing.T) {
	events := []ClickEvent{
		{Time: 2.0, X: 1, Y: 1},
		{Time: 0.0, X: 2, Y: 2},
	}
	Cluster(events, testOptions())

	if events[0].Time != 2.0 || events[1].Time != 0.0 {
		t.Errorf("input slice reordered: %+v", events)
	}
}

func TestZoomKeyframe_Effect(t *testing.T) {
	kf := ZoomKeyframe{
		Time:           3.0,
		X:              960,
		Y:              270,
		FrameWidth:     1920,
		FrameHeight:    1080,
		ZoomLevel:      2.0,
		ActiveDuration: 2.0,
	}

	eff := kf.Effect(10)
	if eff.StartTime != 3.0 || eff.EndTime != 5.0 {
		t.Errorf("effect interval = [%v, %v), want [3, 5)", eff.StartTime, eff.EndTime)
	}
	if eff.FocalXPercent != 50 || eff.FocalYPercent != 25 {
		t.Errorf("focal = (%v, %v), want (50, 25)", eff.FocalXPercent, eff.FocalYPercent)
	}
	if eff.Scale != 2.0 {
		t.Errorf("scale = %v, want 2.0", eff.Scale)
	}

	// Active window clamps to the recording length.
	clamped := kf.Effect(4)
	if clamped.EndTime != 4 {
		t.Errorf("clamped end = %v, want 4", clamped.EndTime)
	}
}
