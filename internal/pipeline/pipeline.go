// Package pipeline runs one brand-visibility analysis from company input to
// ranked result, reporting every stage through a progress emitter.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/config"
	"github.com/TobiSchelling/brandmonitor/internal/extract"
	"github.com/TobiSchelling/brandmonitor/internal/fanout"
	"github.com/TobiSchelling/brandmonitor/internal/progress"
	"github.com/TobiSchelling/brandmonitor/internal/prompts"
	"github.com/TobiSchelling/brandmonitor/internal/rank"
)

// ProviderLister reports the providers usable for a run.
type ProviderLister interface {
	ListEnabled() []brand.ProviderIdentity
}

// Scraper turns a company URL into metadata.
type Scraper interface {
	Fetch(ctx context.Context, url string, maxAge time.Duration) (*brand.CompanyInfo, error)
}

// Deps are the collaborators of an Orchestrator. Search may be nil.
type Deps struct {
	Providers ProviderLister
	Querier   fanout.Querier
	Scraper   Scraper
	Search    prompts.WebSearch
}

// Input is the analysis request. A company with ScrapedAt set counts as
// pre-scraped and skips the scraping stage.
type Input struct {
	Company                 brand.CompanyInfo `json:"company"`
	CustomPrompts           []string          `json:"customPrompts"`
	UserSelectedCompetitors []string          `json:"userSelectedCompetitors"`
	UseWebSearch            bool              `json:"useWebSearch"`
}

// Prescraped reports whether the caller supplied scraped company data.
func (in Input) Prescraped() bool {
	return !in.Company.ScrapedAt.IsZero()
}

// Validate checks the input before any stream is opened.
func Validate(in Input) error {
	if strings.TrimSpace(in.Company.Name) == "" || strings.TrimSpace(in.Company.URL) == "" {
		return brand.NewError(brand.KindValidation, "Company name and URL are required", nil)
	}
	if _, err := brand.NormalizeURL(in.Company.URL); err != nil {
		return brand.NewError(brand.KindValidation, "invalid company URL", err)
	}
	return nil
}

const defaultEmitGrace = 2 * time.Second

// stageProgress is the percentage reported when a stage starts.
var stageProgress = map[brand.Stage]int{
	brand.StageInitializing:        0,
	brand.StageScraping:            10,
	brand.StageCompetitorDiscovery: 20,
	brand.StagePromptGeneration:    30,
	brand.StageQuerying:            40,
	brand.StageExtracting:          80,
	brand.StageRanking:             90,
	brand.StageFinalizing:          95,
}

// Orchestrator drives the analysis state machine. It is safe to run
// several analyses at once; runs share nothing but the collaborators.
type Orchestrator struct {
	deps      Deps
	analysis  config.Analysis
	maxAge    time.Duration
	resolver  *prompts.Resolver
	generator *prompts.Generator

	now   func() time.Time
	newID func() string

	// emitGrace is how long events may wait for a slow consumer after the
	// run deadline, so the terminal event still has a chance to arrive.
	emitGrace time.Duration
}

// New creates an orchestrator.
func New(cfg *config.Config, deps Deps) *Orchestrator {
	return &Orchestrator{
		deps:      deps,
		analysis:  cfg.Analysis,
		maxAge:    cfg.Scrape.CacheMaxAge,
		resolver:  prompts.NewResolver(deps.Search, cfg.Analysis.MaxCompetitors),
		generator: prompts.NewGenerator(cfg.Analysis.MaxPrompts),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		emitGrace: defaultEmitGrace,
	}
}

// run is the state of one analysis.
type run struct {
	o     *Orchestrator
	em    progress.Emitter
	stage brand.Stage
	log   *logrus.Entry

	// emitCtx bounds how long an event waits for the consumer.
	emitCtx context.Context
}

// Run executes one analysis. It emits a status event on entering each
// stage, a provider-result event per provider response and exactly one
// terminal event. Individual provider failures never fail the run.
// An event the consumer has no room for by the run deadline, plus a short
// grace, is dropped.
func (o *Orchestrator) Run(ctx context.Context, in Input, em progress.Emitter) (res *brand.AnalysisResult, err error) {
	if em == nil {
		em = progress.Discard
	}
	emitCtx := ctx
	if o.analysis.RunTimeout > 0 {
		var cancelEmit, cancel context.CancelFunc
		emitCtx, cancelEmit = context.WithTimeout(ctx, o.analysis.RunTimeout+o.emitGrace)
		defer cancelEmit()
		ctx, cancel = context.WithTimeout(ctx, o.analysis.RunTimeout)
		defer cancel()
	}
	r := &run{
		o:       o,
		em:      em,
		log:     logrus.WithField("company", in.Company.Name),
		emitCtx: emitCtx,
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.WithField("panic", p).Error("Analysis panicked")
			res = nil
			err = brand.NewError(brand.KindUnexpected, fmt.Sprintf("analysis failed unexpectedly: %v", p), nil)
		}
		if err != nil {
			r.fail(err)
			return
		}
		r.emit(brand.EventComplete, brand.StageFinalizing, res)
	}()

	return r.execute(ctx, in)
}

func (r *run) execute(ctx context.Context, in Input) (*brand.AnalysisResult, error) {
	o := r.o
	start := o.now()

	r.enter(brand.StageInitializing, "Starting analysis", nil)
	if err := Validate(in); err != nil {
		return nil, err
	}
	providers := o.deps.Providers.ListEnabled()
	if len(providers) == 0 {
		return nil, brand.ErrNoProviders
	}
	company := companyFrom(in.Company)

	if !in.Prescraped() {
		r.enter(brand.StageScraping, "Scraping "+company.URL, nil)
		if err := r.scrape(ctx, &company); err != nil {
			return nil, err
		}
	}

	r.enter(brand.StageCompetitorDiscovery, "Identifying competitors", nil)
	resolution := o.resolver.Resolve(ctx, company, in.UserSelectedCompetitors, in.UseWebSearch)
	competitorDetail := map[string]any{
		"competitors": resolution.Competitors,
		"discovered":  resolution.Discovered,
	}
	if len(resolution.Dropped) > 0 {
		competitorDetail["dropped"] = resolution.Dropped
	}
	if resolution.SearchErr != nil {
		r.log.WithError(resolution.SearchErr).Warn("Competitor discovery failed, continuing with user competitors")
		competitorDetail["searchError"] = resolution.SearchErr.Error()
	}
	r.status(fmt.Sprintf("Found %d competitors", len(resolution.Competitors)), competitorDetail)

	r.enter(brand.StagePromptGeneration, "Generating prompts", nil)
	ps := o.generator.Generate(company, in.CustomPrompts)
	r.status(fmt.Sprintf("Generated %d prompts", len(ps)), map[string]any{"prompts": ps})

	total := len(ps) * len(providers)
	r.enter(brand.StageQuerying, fmt.Sprintf("Querying %d providers with %d prompts", len(providers), len(ps)),
		map[string]any{"providers": providers, "total": total})
	responses := r.query(ctx, ps, providers)

	r.enter(brand.StageExtracting, "Extracting mentions", nil)
	subjects := extract.Subjects(company, resolution.Competitors)
	mentions := extract.New(subjects, company.NormalizedDomain).ExtractAll(responses)

	r.enter(brand.StageRanking, "Ranking brands", nil)
	rankings := rank.Rank(subjects, mentions, total)

	r.enter(brand.StageFinalizing, "Finalizing results", nil)
	result := &brand.AnalysisResult{
		ID:                o.newID(),
		Company:           company,
		Competitors:       resolution.Competitors,
		Prompts:           ps,
		Providers:         providers,
		VisibilityScore:   rank.CompanyScore(rankings),
		Rankings:          rankings,
		ProviderResponses: responses,
		Mentions:          mentions,
		GeneratedAt:       o.now(),
	}
	if result.Competitors == nil {
		result.Competitors = []brand.Competitor{}
	}
	if result.Mentions == nil {
		result.Mentions = []brand.Mention{}
	}

	r.log.WithFields(logrus.Fields{
		"id":         result.ID,
		"score":      result.VisibilityScore,
		"responses":  len(responses),
		"mentions":   len(mentions),
		"elapsed_ms": o.now().Sub(start).Milliseconds(),
	}).Info("Analysis complete")
	return result, nil
}

// scrape enriches company in place. A scrape failure is fatal only when
// the caller gave no description to fall back on.
func (r *run) scrape(ctx context.Context, company *brand.Company) error {
	if r.o.deps.Scraper == nil {
		if company.Description != "" {
			return nil
		}
		return brand.NewError(brand.KindConfiguration, "no scraper configured", nil)
	}

	info, err := r.o.deps.Scraper.Fetch(ctx, company.URL, r.o.maxAge)
	if err != nil {
		if !brand.IsKind(err, brand.KindScrape) && !brand.IsKind(err, brand.KindValidation) {
			err = brand.NewError(brand.KindScrape, "failed to scrape "+company.URL, err)
		}
		if company.Description == "" {
			return err
		}
		r.log.WithError(err).Warn("Scrape failed, using supplied description")
		r.status("Scrape failed, continuing with supplied company data", map[string]any{"error": err.Error()})
		return nil
	}

	if company.Description == "" {
		company.Description = info.Description
	}
	if company.Industry == "" {
		company.Industry = info.Industry
	}
	if len(company.Markets) == 0 {
		company.Markets = info.Markets
	}
	r.status("Scraped company website", info)
	return nil
}

// query fans out every prompt to every provider and returns the responses
// in prompt-major, provider-minor order.
func (r *run) query(ctx context.Context, ps []brand.Prompt, providers []brand.ProviderIdentity) []brand.ProviderResponse {
	fan := fanout.New(r.o.deps.Querier, fanout.Options{
		MaxConcurrency: r.o.analysis.MaxConcurrency,
		CallTimeout:    r.o.analysis.ProviderTimeout,
	})

	total := len(ps) * len(providers)
	responses := make([]brand.ProviderResponse, 0, total)
	for resp := range fan.Run(ctx, ps, providers) {
		responses = append(responses, resp)
		r.emit(brand.EventProviderResult, brand.StageQuerying, brand.ProviderResultData{
			ProviderResponse: resp,
			Completed:        len(responses),
			Total:            total,
			Progress:         queryProgress(len(responses), total),
		})
	}

	if err := ctx.Err(); err != nil {
		r.log.WithError(err).Warn("Run deadline reached, finalizing with available responses")
	}

	promptIdx := indexOf(ps, func(p brand.Prompt) string { return p.ID })
	providerIdx := indexOf(providers, func(p brand.ProviderIdentity) string { return p.ID })
	sort.SliceStable(responses, func(i, j int) bool {
		a, b := responses[i], responses[j]
		if promptIdx[a.PromptID] != promptIdx[b.PromptID] {
			return promptIdx[a.PromptID] < promptIdx[b.PromptID]
		}
		return providerIdx[a.ProviderID] < providerIdx[b.ProviderID]
	})
	return responses
}

func indexOf[T any](items []T, key func(T) string) map[string]int {
	m := make(map[string]int, len(items))
	for i, it := range items {
		m[key(it)] = i
	}
	return m
}

// queryProgress maps completed calls onto the querying share of the bar.
func queryProgress(done, total int) int {
	lo, hi := stageProgress[brand.StageQuerying], stageProgress[brand.StageExtracting]
	if total == 0 {
		return hi
	}
	return lo + (hi-lo)*done/total
}

func companyFrom(info brand.CompanyInfo) brand.Company {
	u, _ := brand.NormalizeURL(info.URL)
	return brand.Company{
		Name:             strings.TrimSpace(info.Name),
		URL:              u,
		NormalizedDomain: brand.RegistrableDomain(u),
		Description:      strings.TrimSpace(info.Description),
		Industry:         info.Industry,
		Markets:          info.Markets,
	}
}

// enter moves the run to stage and announces it.
func (r *run) enter(stage brand.Stage, message string, detail any) {
	r.stage = stage
	r.log.Infof("Stage %d/%d: %s", stage.Index()+1, len(brand.Stages), message)
	r.status(message, detail)
}

func (r *run) status(message string, detail any) {
	r.emit(brand.EventStatus, r.stage, brand.StatusData{
		Message:  message,
		Progress: stageProgress[r.stage],
		Detail:   detail,
	})
}

func (r *run) fail(err error) {
	stage := r.stage
	if stage == "" {
		stage = brand.StageInitializing
	}
	r.log.WithFields(logrus.Fields{"stage": stage, "kind": brand.KindOf(err)}).WithError(err).Error("Analysis failed")
	r.emit(brand.EventError, stage, brand.ErrorData{Error: err.Error(), Kind: brand.KindOf(err)})
}

func (r *run) emit(typ brand.EventType, stage brand.Stage, data any) {
	r.em.Emit(r.emitCtx, brand.Event{
		Type:      typ,
		Stage:     stage,
		Data:      data,
		Timestamp: r.o.now(),
	})
}
