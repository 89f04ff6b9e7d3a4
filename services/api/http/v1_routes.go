package http

// registerV1Routes sets up the v1 API under /api/v1.
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware())

	observations := v1.Group("/observations")
	{
		observations.GET("", s.handleV1ListObservations)
		observations.GET("/:obs_id", s.handleV1GetObservation)
		observations.GET("/:obs_id/photons", s.handleV1ObservationPhotons)
	}
}
