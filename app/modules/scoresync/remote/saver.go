// Package remote bridges the client-side persistence machinery to the round
// service: batched saves land in the same code path the HTTP surface uses.
package remote

import (
	"context"
	"fmt"

	roundservice "github.com/fairway-collective/scorekeeper/app/modules/round/application"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

// ServiceSaver satisfies the bridge's RemoteSaver against the round service.
type ServiceSaver struct {
	Service roundservice.Service
}

func NewServiceSaver(svc roundservice.Service) *ServiceSaver {
	return &ServiceSaver{Service: svc}
}

// SaveBatch submits a batch and surfaces domain rejections as errors so the
// bridge's retry machinery treats them like any other failed attempt.
func (s *ServiceSaver) SaveBatch(ctx context.Context, roundID sharedtypes.RoundID, updates []sharedtypes.ScoreEntryUpdate) (sharedtypes.BatchResult, error) {
	result, err := s.Service.SaveScoreBatch(ctx, roundID, updates)
	if err != nil {
		return sharedtypes.BatchResult{}, err
	}
	if result.IsFailure() {
		return sharedtypes.BatchResult{}, fmt.Errorf("batch rejected: %s", result.Failure.Reason)
	}
	return *result.Success, nil
}
