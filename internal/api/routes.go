package api

import (
	"net/http"

	"alcyxob/program-engine/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	orchestrator service.OrchestratorService,
	programService service.ProgramService,
) {
	programHandler := NewProgramHandler(orchestrator, programService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		// --- Program Generation ---
		// POST /api/v1/programs/generate - accept a generation request (202)
		apiV1.POST("/programs/generate", programHandler.GenerateProgram)
		// POST /api/v1/programs/{programId}/progress - schedule next week (202)
		apiV1.POST("/programs/:programId/progress", programHandler.ProgressProgram)

		// --- Reads ---
		// GET /api/v1/jobs/{jobId} - poll job status
		apiV1.GET("/jobs/:jobId", programHandler.GetJobStatus)
		// GET /api/v1/programs/{programId} - fetch a program (router-read)
		apiV1.GET("/programs/:programId", programHandler.GetProgram)
		// GET /api/v1/owners/{ownerId}/programs/latest
		apiV1.GET("/owners/:ownerId/programs/latest", programHandler.GetLatestProgram)
	}
}
