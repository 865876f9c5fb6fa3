package crons

import (
	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"

	"github.com/dawita19/earnmax-sub001/config"
	"github.com/dawita19/earnmax-sub001/service"
)

var cronService *cron.Cron

// Start Initiate the crons based on the given configuration file
func Start(crons config.Crons, srv *service.Service) {
	cronService = cron.New()
	for id, schedule := range crons {
		callback := GetCronByID(id, srv)
		_ = cronService.AddFunc(schedule, callback)
		// run the reconciliation once at startup to drain any backlog
		if id == "redispatch_pending" {
			callback()
		}
	}
	cronService.Start()
}

// GetCronByID get a function to execute based on the id
func GetCronByID(id string, srv *service.Service) func() {
	switch id {
	case "redispatch_pending":
		return func() {
			CronRedispatchPending(srv)
		}
	case "generate_daily_tasks":
		return func() {
			CronGenerateDailyTasks(srv)
		}
	}
	return (func() {})
}

// CronRedispatchPending re-attempt dispatch for requests left pending because
// no admin was available or an admin was deactivated. This pass is the only
// recovery path for roster churn.
func CronRedispatchPending(srv *service.Service) {
	dispatched, err := srv.ReconcileDispatch()
	if err != nil {
		log.Warn().Err(err).Str("section", "crons").Str("cron", "redispatch_pending").Msg("Reconciliation pass failed")
		return
	}
	if dispatched > 0 {
		log.Info().Str("section", "crons").Int("dispatched", dispatched).Msg("Redistributed pending requests")
	}
}

// CronGenerateDailyTasks create today's claimable tasks for paid-tier users
func CronGenerateDailyTasks(srv *service.Service) {
	created, err := srv.GenerateDailyTasks()
	if err != nil {
		log.Warn().Err(err).Str("section", "crons").Str("cron", "generate_daily_tasks").Msg("Task generation failed")
		return
	}
	if created > 0 {
		log.Info().Str("section", "crons").Int64("created", created).Msg("Generated daily tasks")
	}
}

// Close godoc
func Close() {
	if cronService != nil {
		cronService.Stop()
	}
}
