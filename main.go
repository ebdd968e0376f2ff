package main

import (
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/civicsetu/civic-voice-api/api/handlers"
	"github.com/civicsetu/civic-voice-api/api/scheduler"
	"github.com/civicsetu/civic-voice-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	if err := a.Initialize(); err != nil {
		log.Fatal(err)
	}

	s := scheduler.NewScheduler(a.Complaint, a.Config.ReprioritizeSchedule)
	s.Start()
	defer s.Stop()

	zap.S().Infow("civic-voice-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
	)
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%v", a.Config.Port), a.Router))
}
