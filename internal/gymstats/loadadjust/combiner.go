package loadadjust

import (
	"context"
	"fmt"

	"github.com/2beens/trainload/internal/gymstats/deload"
	"github.com/2beens/trainload/internal/gymstats/periodization"
	"github.com/2beens/trainload/internal/gymstats/progression"
	"github.com/2beens/trainload/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=loadadjust_test

type periodizationSource interface {
	CurrentParameters(ctx context.Context, userID int64) (*periodization.Parameters, error)
}

type deloadSource interface {
	CurrentAdjustment(ctx context.Context, userID int64) (*deload.Adjustment, error)
}

type suggester interface {
	Suggest(ctx context.Context, req progression.Request) (progression.Result, error)
}

// Multiplier is the advisory load factor for the user's current week.
// Weight and Volume are the products of the contributing parts.
type Multiplier struct {
	Weight        float64                   `json:"weight"`
	Volume        float64                   `json:"volume"`
	Periodization *periodization.Parameters `json:"periodization,omitempty"`
	Deload        *deload.Adjustment        `json:"deload,omitempty"`
}

// Advice is a raw progression result next to the multiplier. The multiplier
// is not applied to the suggestion.
type Advice struct {
	Result     progression.Result `json:"result"`
	Multiplier Multiplier         `json:"multiplier"`
}

type Combiner struct {
	periodization periodizationSource
	deload        deloadSource
	suggester     suggester
}

func NewCombiner(planner periodizationSource, detector deloadSource, engine suggester) *Combiner {
	return &Combiner{
		periodization: planner,
		deload:        detector,
		suggester:     engine,
	}
}

func (c *Combiner) EffectiveMultiplier(ctx context.Context, userID int64) (_ *Multiplier, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "loadadjust.effective_multiplier")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("user_id", userID))

	params, err := c.periodization.CurrentParameters(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("periodization parameters: %w", err)
	}
	adjustment, err := c.deload.CurrentAdjustment(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("deload adjustment: %w", err)
	}

	m := &Multiplier{
		Weight:        1.0,
		Volume:        1.0,
		Periodization: params,
		Deload:        adjustment,
	}
	if params != nil {
		m.Weight *= params.IntensityMultiplier
		m.Volume *= params.VolumeMultiplier
	}
	if adjustment != nil {
		m.Weight *= adjustment.WeightMultiplier
		m.Volume *= adjustment.VolumeMultiplier
	}

	log.Tracef("effective multiplier for user %d: weight %.3f, volume %.3f", userID, m.Weight, m.Volume)
	return m, nil
}

func (c *Combiner) Advise(ctx context.Context, req progression.Request) (_ *Advice, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "loadadjust.advise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	result, err := c.suggester.Suggest(ctx, req)
	if err != nil {
		return nil, err
	}
	m, err := c.EffectiveMultiplier(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return &Advice{
		Result:     result,
		Multiplier: *m,
	}, nil
}
