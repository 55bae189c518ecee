// Package pipeline assembles the offboarding workflow: parse uploaded
// files, deep-dive each one in bounded passes, merge the reports into a
// corpus, run cross-file analysis, reconcile the question backlog, hold
// the suspend/resume interview, and emit the onboarding package.
package pipeline

import (
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/ShayCichocki/handover/internal/api"
	"github.com/ShayCichocki/handover/internal/config"
	"github.com/ShayCichocki/handover/internal/engine"
	"github.com/ShayCichocki/handover/internal/session"
)

// Stage names, in graph order.
const (
	StageParse     = "parse"
	StageDeepDive  = "deep_dive"
	StageCorpus    = "merge_corpus"
	StageCross     = "cross_analysis"
	StageReconcile = "reconcile"
	StageInterview = "interview"
	StagePackage   = "package"
	StageQAContext = "qa_context"
)

// Pipeline wires the stage implementations to their dependencies. One
// Pipeline serves any number of sessions; per-session state lives in
// the engine's checkpoints.
type Pipeline struct {
	reasoner api.Reasoner
	cfg      *config.Config
	profiles *config.PassProfiles
	store    session.Store
}

// New creates a pipeline. A nil profiles falls back to the config's
// built-in pass ceilings.
func New(reasoner api.Reasoner, cfg *config.Config, profiles *config.PassProfiles, store session.Store) *Pipeline {
	if profiles == nil {
		profiles = config.DefaultPassProfiles(cfg.Analysis)
	}
	return &Pipeline{
		reasoner: reasoner,
		cfg:      cfg,
		profiles: profiles,
		store:    store,
	}
}

// Graph builds the stage graph the engine executes.
func (p *Pipeline) Graph() *engine.Graph {
	g := engine.NewGraph(StageParse)
	g.Add(&engine.Stage{Name: StageParse, Run: p.runParse, Next: StageDeepDive})
	g.Add(&engine.Stage{Name: StageDeepDive, FanOut: p.deepDiveFanOut(), Next: StageCorpus})
	g.Add(&engine.Stage{Name: StageCorpus, Run: p.runMergeCorpus, Next: StageCross})
	g.Add(&engine.Stage{Name: StageCross, Run: p.runCrossAnalysis, Next: StageReconcile})
	g.Add(&engine.Stage{Name: StageReconcile, Run: p.runReconcile, Next: StageInterview})
	g.Add(&engine.Stage{Name: StageInterview, Run: p.runInterview, Next: StagePackage})
	g.Add(&engine.Stage{Name: StagePackage, Run: p.runPackage, Next: StageQAContext})
	g.Add(&engine.Stage{Name: StageQAContext, Run: p.runQAContext})
	return g
}

// saveArtifact persists an inspection artifact. Artifact writes never
// fail a session; the checkpoint is the durable record.
func (p *Pipeline) saveArtifact(sessionID, name string, data []byte) {
	if err := p.store.SaveArtifact(sessionID, name, data); err != nil {
		log.Printf("[pipeline] session %s: save artifact %s: %v", sessionID, name, err)
	}
}

// newQuestionID mints a short unique backlog ID with an origin prefix.
func newQuestionID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// truncateContent caps prompt payloads so one oversized file cannot
// blow the context window.
const maxContentChars = 12000

func truncateContent(s string) string {
	if len(s) <= maxContentChars {
		return s
	}
	return s[:maxContentChars] + "\n\n[content truncated]"
}
