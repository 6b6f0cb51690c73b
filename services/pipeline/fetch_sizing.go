package pipeline

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/primestrides/sendstack/config"
	"github.com/primestrides/sendstack/internal/enum"
	"github.com/primestrides/sendstack/internal/logger"
	"github.com/primestrides/sendstack/internal/repository"
	"github.com/primestrides/sendstack/internal/tracing"
	"github.com/primestrides/sendstack/internal/utils"
)

// FetchSizer sizes upstream lead-fetch batches so that, after the
// expected attrition from bounces, do-not-contact hits and failed
// verification, enough drafts remain to hit the daily target.
type FetchSizer struct {
	cfg   *config.SchedulerConfig
	log   logger.Logger
	repos *repository.Repositories
	loc   *time.Location
	now   func() time.Time
}

func NewFetchSizer(cfg *config.SchedulerConfig, log logger.Logger, repos *repository.Repositories, loc *time.Location) *FetchSizer {
	return &FetchSizer{
		cfg:   cfg,
		log:   log,
		repos: repos,
		loc:   loc,
		now:   utils.Now,
	}
}

func (f *FetchSizer) dailyTarget() int {
	if f.cfg.GlobalDailyTarget > 0 {
		return f.cfg.GlobalDailyTarget
	}
	return f.cfg.EmailsPerDayPerIdentity * len(f.cfg.Identities)
}

// LeadsToFetch returns how many leads the upstream source should be
// asked for right now. Zero means the pipeline already covers today's
// target.
func (f *FetchSizer) LeadsToFetch(ctx context.Context) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FetchSizer.LeadsToFetch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	startOfDay := utils.StartOfDay(f.now().In(f.loc))

	sentToday, err := f.repos.MessageLedgerRepository.CountByStatusSince(ctx, enum.SendStatusSent, startOfDay)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, errors.Wrap(err, "count sent today")
	}

	draftsReady, err := f.repos.MessageLedgerRepository.CountByStatus(ctx, enum.SendStatusDraft)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, errors.Wrap(err, "count ready drafts")
	}

	target := f.dailyTarget()
	inPipeline := int(sentToday + draftsReady)
	remaining := target - inPipeline

	span.LogKV("target", target, "inPipeline", inPipeline, "remaining", remaining)

	if remaining <= 0 {
		return 0, nil
	}

	fetch := int(float64(remaining) * f.cfg.FetchSkipCompensation)
	fetch = int(float64(fetch) * f.cfg.FetchSafetyBuffer)

	if fetch < f.cfg.FetchMinBatch {
		fetch = f.cfg.FetchMinBatch
	}
	if fetch > f.cfg.FetchMaxBatch {
		fetch = f.cfg.FetchMaxBatch
	}

	f.log.Infof("Sized lead fetch at %d (target %d, pipeline %d)", fetch, target, inPipeline)
	return fetch, nil
}
