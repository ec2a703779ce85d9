package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordStoreQuery(t *testing.T) {
	before := testutil.ToFloat64(StoreQueryErrors.WithLabelValues("test_op"))

	RecordStoreQuery("test_op", 5*time.Millisecond, 10, nil)
	RecordStoreQuery("test_op", 5*time.Millisecond, 0, errors.New("down"))

	after := testutil.ToFloat64(StoreQueryErrors.WithLabelValues("test_op"))
	if after-before != 1 {
		t.Errorf("expected one error recorded, got %v", after-before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/test", "200"))
	RecordAPIRequest("GET", "/api/test", 200, time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/test", "200"))
	if after-before != 1 {
		t.Errorf("expected counter +1, got %v", after-before)
	}
}

func TestRecordLivePoll(t *testing.T) {
	before := testutil.ToFloat64(LivePollsTotal.WithLabelValues("stale"))
	RecordLivePoll("stale")
	if got := testutil.ToFloat64(LivePollsTotal.WithLabelValues("stale")) - before; got != 1 {
		t.Errorf("expected +1, got %v", got)
	}
}
