package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-pipeline/internal/types"
)

const (
	linkedInSearchURL  = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"
	linkedInPageSize   = 25
	linkedInFetchLimit = 3
)

// LinkedIn discovers jobs through the public guest job search endpoint.
type LinkedIn struct {
	client *Client
}

func NewLinkedIn(client *Client) *LinkedIn {
	return &LinkedIn{client: client}
}

func (l *LinkedIn) Name() string {
	return SourceLinkedIn
}

func (l *LinkedIn) Discover(ctx context.Context, cfg SearchConfig) ([]types.Job, error) {
	var jobs []types.Job

	for start := 0; len(jobs) < cfg.ResultsWanted; start += linkedInPageSize {
		if err := ctx.Err(); err != nil {
			return jobs, err
		}

		doc, err := fetchDocument(ctx, l.client, buildLinkedInURL(cfg, start), nil)
		if err != nil {
			if len(jobs) > 0 {
				return jobs, nil
			}
			return nil, err
		}

		page := l.parsePage(doc, cfg)
		if len(page) == 0 {
			break
		}
		jobs = append(jobs, page...)
	}

	if len(jobs) > cfg.ResultsWanted {
		jobs = jobs[:cfg.ResultsWanted]
	}

	if cfg.FetchDescriptions {
		if err := l.fetchDescriptions(ctx, jobs); err != nil {
			return jobs, err
		}
	}
	return jobs, nil
}

func (l *LinkedIn) parsePage(doc *goquery.Document, cfg SearchConfig) []types.Job {
	var jobs []types.Job

	doc.Find("div.base-card").Each(func(_ int, s *goquery.Selection) {
		title := cleanText(s.Find("h3.base-search-card__title").Text())
		company := cleanText(s.Find("h4.base-search-card__subtitle").Text())
		location := cleanText(s.Find("span.job-search-card__location").Text())
		link, _ := s.Find("a.base-card__full-link").Attr("href")
		postedRaw, _ := s.Find("time").Attr("datetime")

		urn, _ := s.Attr("data-entity-urn")
		jobID := strings.TrimPrefix(urn, "urn:li:jobPosting:")
		if jobID == urn {
			jobID = ""
		}

		job := types.Job{
			Source:      SourceLinkedIn,
			SourceJobID: jobID,
			JobURL:      stripQuery(link),
			Title:       title,
			Company:     company,
			Location:    location,
			Remote:      isRemote(location, title),
		}

		if postedRaw != "" {
			if ts, err := time.Parse("2006-01-02", postedRaw); err == nil {
				job.PostedAt = &ts
			}
		}

		if cfg.Remote && !job.Remote {
			return
		}
		if job.Title == "" || job.JobURL == "" {
			return
		}

		jobs = append(jobs, job)
	})

	return jobs
}

// fetchDescriptions loads each posting's detail page to fill in the full
// description. Fetches run concurrently but bounded, so the guest endpoint
// is not hammered.
func (l *LinkedIn) fetchDescriptions(ctx context.Context, jobs []types.Job) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(linkedInFetchLimit)

	for i := range jobs {
		g.Go(func() error {
			doc, err := fetchDocument(gCtx, l.client, jobs[i].JobURL, nil)
			if err != nil {
				// A missing description is not worth failing discovery over.
				return nil
			}
			desc := cleanText(doc.Find("div.show-more-less-html__markup").Text())
			if desc != "" {
				jobs[i].Description = desc
			}
			return nil
		})
	}

	return g.Wait()
}

func buildLinkedInURL(cfg SearchConfig, start int) string {
	values := url.Values{}
	values.Set("keywords", cfg.Query)
	if cfg.Location != "" {
		values.Set("location", cfg.Location)
	}
	if start > 0 {
		values.Set("start", fmt.Sprintf("%d", start))
	}
	if cfg.HoursOld > 0 {
		values.Set("f_TPR", fmt.Sprintf("r%d", cfg.HoursOld*3600))
	}
	if cfg.Remote {
		values.Set("f_WT", "2")
	}
	return linkedInSearchURL + "?" + values.Encode()
}

func stripQuery(link string) string {
	if idx := strings.Index(link, "?"); idx >= 0 {
		return link[:idx]
	}
	return link
}
