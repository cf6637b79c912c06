package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportReasonError(t *testing.T) {
	assert.NotEmpty(t, reportReasonError(""))
	assert.Empty(t, reportReasonError("спам и оскорбления"))
	assert.Empty(t, reportReasonError(strings.Repeat("a", 1000)))
	assert.NotEmpty(t, reportReasonError(strings.Repeat("a", 1001)))
}
