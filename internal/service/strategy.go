package service

import (
	"hash/fnv"

	"alcyxob/program-engine/internal/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PipelineStrategy names the generation pipeline a request runs through.
// Resolved once per request and passed down the pipeline; never read from
// shared config mid-flight, so a rollout change cannot split one job across
// two pipelines.
type PipelineStrategy string

const (
	// PipelineAdaptive is the model-backed pipeline.
	PipelineAdaptive PipelineStrategy = "adaptive"
	// PipelineTemplate is the deterministic pre-model pipeline.
	PipelineTemplate PipelineStrategy = "template"
)

// ResolveStrategy picks the pipeline for an owner. Precedence: explicit
// per-owner override, then percentage rollout (stable FNV hash of the owner
// id, so an owner never flaps between pipelines), then the configured
// default.
func ResolveStrategy(cfg config.RolloutConfig, ownerID primitive.ObjectID) PipelineStrategy {
	hex := ownerID.Hex()

	if override, ok := cfg.Overrides[hex]; ok {
		if s := parseStrategy(override); s != "" {
			return s
		}
	}

	// Percentage rollout: 100 is fully adaptive, 0 defers to the default,
	// anything between buckets owners by a stable hash so a given owner
	// never flaps between pipelines.
	switch {
	case cfg.AdaptivePercent >= 100:
		return PipelineAdaptive
	case cfg.AdaptivePercent > 0:
		h := fnv.New32a()
		h.Write([]byte(hex))
		if int(h.Sum32()%100) < cfg.AdaptivePercent {
			return PipelineAdaptive
		}
		return PipelineTemplate
	}

	if s := parseStrategy(cfg.Default); s != "" {
		return s
	}
	return PipelineTemplate
}

func parseStrategy(name string) PipelineStrategy {
	switch name {
	case string(PipelineAdaptive):
		return PipelineAdaptive
	case string(PipelineTemplate):
		return PipelineTemplate
	default:
		return ""
	}
}
