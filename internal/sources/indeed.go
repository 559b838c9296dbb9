package sources

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-pipeline/internal/types"
)

const indeedPageSize = 15

// Indeed discovers jobs from Indeed search result pages.
type Indeed struct {
	client *Client
}

func NewIndeed(client *Client) *Indeed {
	return &Indeed{client: client}
}

func (i *Indeed) Name() string {
	return SourceIndeed
}

func (i *Indeed) Discover(ctx context.Context, cfg SearchConfig) ([]types.Job, error) {
	var jobs []types.Job

	for offset := 0; len(jobs) < cfg.ResultsWanted; offset += indeedPageSize {
		if err := ctx.Err(); err != nil {
			return jobs, err
		}

		searchURL := buildIndeedURL(cfg, offset)
		doc, err := fetchDocument(ctx, i.client, searchURL, nil)
		if err != nil {
			if len(jobs) > 0 {
				// Keep what earlier pages returned.
				return jobs, nil
			}
			return nil, err
		}

		page := i.parsePage(doc, cfg)
		if len(page) == 0 {
			break
		}
		jobs = append(jobs, page...)
	}

	if len(jobs) > cfg.ResultsWanted {
		jobs = jobs[:cfg.ResultsWanted]
	}
	return jobs, nil
}

func (i *Indeed) parsePage(doc *goquery.Document, cfg SearchConfig) []types.Job {
	var jobs []types.Job

	doc.Find("a.tapItem").Each(func(_ int, s *goquery.Selection) {
		title := cleanText(s.Find("h2.jobTitle span").First().Text())
		company := cleanText(s.Find("span.companyName").First().Text())
		location := cleanText(s.Find("div.companyLocation").First().Text())
		snippet := cleanText(s.Find("div.job-snippet").Text())

		link, _ := s.Attr("href")
		link = absoluteURL(baseIndeedURL(cfg.Country), link)
		jobKey, _ := s.Attr("data-jk")

		job := types.Job{
			Source:      SourceIndeed,
			SourceJobID: jobKey,
			JobURL:      link,
			Title:       title,
			Company:     company,
			Location:    location,
			Description: snippet,
			Remote:      isRemote(location, snippet),
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

func buildIndeedURL(cfg SearchConfig, offset int) string {
	base := baseIndeedURL(cfg.Country)
	values := url.Values{}
	values.Set("q", cfg.Query)
	if cfg.Location != "" {
		values.Set("l", cfg.Location)
	}
	if offset > 0 {
		values.Set("start", fmt.Sprintf("%d", offset))
	}
	if cfg.HoursOld > 0 {
		days := int(math.Ceil(float64(cfg.HoursOld) / 24.0))
		if days < 1 {
			days = 1
		}
		values.Set("fromage", fmt.Sprintf("%d", days))
	}
	return fmt.Sprintf("%s/jobs?%s", base, values.Encode())
}

func baseIndeedURL(country string) string {
	country = strings.TrimSpace(strings.ToLower(country))
	if country == "" || country == "usa" || country == "us" {
		return "https://www.indeed.com"
	}
	return fmt.Sprintf("https://%s.indeed.com", country)
}
