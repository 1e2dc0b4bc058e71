package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/boxdpick/internal/domain"
	"github.com/MrSnakeDoc/boxdpick/internal/validation"
)

// Request is the body of POST /movies.
type Request struct {
	Usernames  []string `json:"usernames" validate:"min=1,max=5,dive,required"`
	ExcludeIDs []string `json:"exclude_ids" validate:"max=5,dive,required"`
	NumMovies  int      `json:"num_movies" validate:"min=1,max=5"`
	UseCache   bool     `json:"use_cache"`
}

// Recommender asks the recommendation service for movies.
type Recommender interface {
	Recommend(ctx context.Context, req Request) ([]domain.Movie, error)
}

// ServiceError is a structured failure reported by the service.
// Detail is shown to the user verbatim.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("recommendation service returned %d: %s", e.StatusCode, e.Detail)
}

// ConnectivityError means the service could not be reached at all.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("recommendation service unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// UserMessage maps any Recommend error to the text shown to the user.
func UserMessage(err error) string {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Detail != "" {
		return svcErr.Detail
	}
	var connErr *ConnectivityError
	if errors.As(err, &connErr) {
		return domain.MsgUnableToConnect
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return domain.MsgRecommendationErr
}
