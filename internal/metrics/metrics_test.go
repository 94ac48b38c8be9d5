package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledRegistryRecordsNothing(t *testing.T) {
	r := New(Config{Enabled: false, EnableLatencyHistograms: true})
	r.Inc(LoginSuccess)
	r.Observe(RevalidateLatency, time.Millisecond)
	if r.Value(LoginSuccess) != 0 {
		t.Fatal("expected disabled registry to ignore Inc")
	}
	s := r.Snapshot()
	if len(s.Counters) != 0 || len(s.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", s)
	}

	var nilReg *Registry
	nilReg.Inc(LoginSuccess)
	if nilReg.Enabled() || nilReg.Value(LoginSuccess) != 0 {
		t.Fatal("nil registry must be inert")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	r := New(Config{Enabled: true})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				r.Inc(RevalidateTransient)
			}
		}()
	}
	wg.Wait()
	if got := r.Value(RevalidateTransient); got != 16000 {
		t.Fatalf("expected 16000, got %d", got)
	}
}

func TestHistogramBuckets(t *testing.T) {
	r := New(Config{Enabled: true, EnableLatencyHistograms: true})
	for _, d := range []time.Duration{
		time.Millisecond,
		7 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		90 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		2 * time.Second,
	} {
		r.Observe(RevalidateLatency, d)
	}
	r.Observe(LoginSuccess, time.Millisecond) // not a histogram

	s := r.Snapshot()
	buckets := s.Histograms[RevalidateLatency]
	if len(buckets) != BucketCount {
		t.Fatalf("expected %d buckets, got %d", BucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d: expected 1, got %d", i, v)
		}
	}
	if _, ok := s.Counters[RevalidateLatency]; ok {
		t.Fatal("histogram ids must not appear as counters")
	}
	if _, ok := s.Histograms[PaymentConfirmLatency]; !ok {
		t.Fatal("expected every histogram present when latency is enabled")
	}
}

func TestLatencyRequiresFlag(t *testing.T) {
	r := New(Config{Enabled: true})
	r.Observe(RevalidateLatency, time.Millisecond)
	if len(r.Snapshot().Histograms) != 0 {
		t.Fatal("expected no histograms without EnableLatencyHistograms")
	}
}
