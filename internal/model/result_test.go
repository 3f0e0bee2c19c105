package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusForDecision(t *testing.T) {
	assert.Equal(t, StatusAccepted, StatusForDecision(DecisionAccept))
	assert.Equal(t, StatusDeclined, StatusForDecision(DecisionDecline))
	assert.Equal(t, StatusNeedMoreInfo, StatusForDecision(DecisionNeedMoreInfo))
	assert.Equal(t, StatusInReview, StatusForDecision(Decision("something else")))
}
