package api

import (
	"errors"
	"fmt"
	"net/http"

	"alcyxob/program-engine/internal/domain"
	"alcyxob/program-engine/internal/science"
	"alcyxob/program-engine/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProgramHandler struct {
	orchestrator   service.OrchestratorService
	programService service.ProgramService
}

func NewProgramHandler(
	orchestrator service.OrchestratorService,
	programService service.ProgramService,
) *ProgramHandler {
	return &ProgramHandler{
		orchestrator:   orchestrator,
		programService: programService,
	}
}

// --- DTOs ---

type GenerateProgramRequest struct {
	OwnerID string             `json:"ownerId" binding:"required"`
	Profile domain.UserProfile `json:"profile" binding:"required"`
}

type ProgressProgramRequest struct {
	WeekIndex int                  `json:"weekIndex" binding:"required,min=1"`
	Feedback  science.WeekFeedback `json:"feedback"`
}

type JobAcceptedResponse struct {
	JobID string `json:"jobId"`
}

// --- Handlers ---

// GenerateProgram accepts a generation request and returns a job receipt.
// The program itself is produced asynchronously; poll the job status.
func (h *ProgramHandler) GenerateProgram(c *gin.Context) {
	var req GenerateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	ownerID, err := primitive.ObjectIDFromHex(req.OwnerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid owner ID format.")
		return
	}

	jobID, err := h.orchestrator.RequestGeneration(c.Request.Context(), ownerID, &req.Profile)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobAlreadyActive):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidRequest):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to accept generation request.")
		}
		return
	}

	c.JSON(http.StatusAccepted, JobAcceptedResponse{JobID: jobID.Hex()})
}

// ProgressProgram accepts a week's performance feedback and schedules the
// next week's computation under the same async job contract.
func (h *ProgramHandler) ProgressProgram(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("programId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}
	var req ProgressProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	jobID, err := h.orchestrator.RequestProgression(c.Request.Context(), programID, req.WeekIndex, req.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProgramNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrJobAlreadyActive):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrInvalidRequest):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to accept progression request.")
		}
		return
	}

	c.JSON(http.StatusAccepted, JobAcceptedResponse{JobID: jobID.Hex()})
}

// GetJobStatus returns the job's lifecycle state plus, on failure, the error
// category and a human-readable message.
func (h *ProgramHandler) GetJobStatus(c *gin.Context) {
	jobID, err := primitive.ObjectIDFromHex(c.Param("jobId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid job ID format.")
		return
	}

	status, err := h.orchestrator.JobStatus(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch job status.")
		}
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetProgram serves a stored program. Freshly written programs are routed to
// the primary store; a 404 here means the record genuinely isn't visible yet
// and the client is expected to retry with backoff.
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("programId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}

	program, err := h.programService.GetProgram(c.Request.Context(), programID)
	if err != nil {
		if errors.Is(err, service.ErrProgramNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch program.")
		}
		return
	}

	c.JSON(http.StatusOK, program)
}

// GetLatestProgram serves the owner's most recent program.
func (h *ProgramHandler) GetLatestProgram(c *gin.Context) {
	ownerID, err := primitive.ObjectIDFromHex(c.Param("ownerId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid owner ID format.")
		return
	}

	program, err := h.programService.GetLatestProgram(c.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, service.ErrProgramNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to fetch program.")
		}
		return
	}

	c.JSON(http.StatusOK, program)
}

// abortWithError sends a JSON error payload and stops the handler chain.
func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
