package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(SignAttemptsTotal.WithLabelValues(serviceName, "captured"))
	IncSignAttempt("captured")
	assert.Equal(t, before+1, testutil.ToFloat64(SignAttemptsTotal.WithLabelValues(serviceName, "captured")))

	before = testutil.ToFloat64(DocumentsCompletedTotal.WithLabelValues(serviceName, "recheck"))
	IncDocumentCompleted("recheck")
	assert.Equal(t, before+1, testutil.ToFloat64(DocumentsCompletedTotal.WithLabelValues(serviceName, "recheck")))

	before = testutil.ToFloat64(CompletionDeferredTotal.WithLabelValues(serviceName))
	IncCompletionDeferred()
	assert.Equal(t, before+1, testutil.ToFloat64(CompletionDeferredTotal.WithLabelValues(serviceName)))

	before = testutil.ToFloat64(CompletionPublishFailuresTotal.WithLabelValues(serviceName))
	IncCompletionPublishFailure()
	assert.Equal(t, before+1, testutil.ToFloat64(CompletionPublishFailuresTotal.WithLabelValues(serviceName)))
}

func TestMustRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		MustRegister("doc-signing-test")
		MustRegister("ignored")
	})
}
