package portal

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Harvester walks the portal's paginated board and lifts raw posting records
// off each page. Each walk starts from page 0; the sequence is finite and
// stops early when a page yields nothing, on the assumption pagination is
// exhausted.
type Harvester struct {
	baseURL    string
	boardURL   string
	delayRange [2]time.Duration
	rng        *rand.Rand
	sleep      func(time.Duration)
}

func NewHarvester(baseURL, boardURL string) *Harvester {
	return &Harvester{
		baseURL:    baseURL,
		boardURL:   boardURL,
		delayRange: [2]time.Duration{time.Second, 3 * time.Second},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      time.Sleep,
	}
}

func (h *Harvester) SetDelayRange(min, max time.Duration) {
	h.delayRange = [2]time.Duration{min, max}
}

// HarvestPages fetches up to maxPages board pages through the session and
// hands every extracted record to handle, page by page. Transport failures
// abort the walk; malformed rows are skipped with a warning. Pages are walked
// strictly sequentially with a jittered pause between them.
func (h *Harvester) HarvestPages(ctx context.Context, session *Session, maxPages int,
	handle func(RawPostingRecord) error) error {

	if session == nil {
		return ErrNotAuthenticated
	}

	for page := 0; page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		pageURL := h.pageURL(page)
		if page > 0 {
			h.sleep(h.randomDelay())
		}

		response, err := session.Driver().Fetch(ctx, pageURL)
		if err != nil {
			return errors.Wrapf(err, "fetching board page %d", page)
		}
		if blocked(response) {
			return errors.Wrapf(ErrAntiBotBlocked, "board page %d returned status %d", page, response.StatusCode)
		}
		if response.StatusCode >= 400 {
			return &RequestError{URL: pageURL, Status: response.StatusCode}
		}

		records, err := h.extractPage(response.Body, pageURL)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			log.Infof("board page %d is empty, stopping harvest", page)
			return nil
		}

		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := handle(record); err != nil {
				return err
			}
		}
	}

	return nil
}

func (h *Harvester) pageURL(page int) string {
	if page == 0 {
		return h.boardURL
	}
	return fmt.Sprintf("%s/job_board-%d.html", h.baseURL, page)
}

func (h *Harvester) extractPage(body, pageURL string) ([]RawPostingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, &RequestError{URL: pageURL, Err: errors.Wrap(err, "parse board page")}
	}

	var records []RawPostingRecord
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		result := extractRow(row, pageURL)
		if result.record != nil {
			records = append(records, *result.record)
		} else if result.skip != "" {
			log.Warnf("skipping board row: %s", result.skip)
		}
	})

	return records, nil
}

// extractRow lifts one posting out of a table row. Rows without an emphasized
// title span are not postings at all and produce neither a record nor a skip.
func extractRow(row *goquery.Selection, pageURL string) rowResult {
	title := strings.TrimSpace(row.Find("strong").First().Text())
	if title == "" {
		return rowResult{}
	}
	if len(title) < 3 {
		return rowResult{skip: "title too short to be a posting"}
	}

	description := strings.TrimSpace(row.Find("small").First().Text())

	var emailMarkup string
	anchor := row.Find(`a[data-cfemail]`).First()
	if anchor.Length() == 0 {
		anchor = row.Find(`a[href="/cdn-cgi/l/email-protection"]`).First()
	}
	if anchor.Length() > 0 {
		if markup, err := goquery.OuterHtml(anchor); err == nil {
			emailMarkup = markup
		}
	}

	return rowResult{record: &RawPostingRecord{
		Title:                 title,
		DescriptionText:       description,
		ObfuscatedEmailMarkup: emailMarkup,
		SourcePageURL:         pageURL,
		PostedAt:              extractPostedDate(row),
	}}
}

var dateClassRe = regexp.MustCompile(`(?i)date|time`)

var dateFormats = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"January 2, 2006",
}

func extractPostedDate(row *goquery.Selection) *time.Time {
	var text string
	row.Find("span, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		if dateClassRe.MatchString(class) {
			text = strings.TrimSpace(sel.Text())
			return false
		}
		return true
	})
	if text == "" {
		return nil
	}

	for _, format := range dateFormats {
		if parsed, err := time.Parse(format, text); err == nil {
			return &parsed
		}
	}
	return nil
}

func (h *Harvester) randomDelay() time.Duration {
	delay := h.delayRange[0]
	if spread := h.delayRange[1] - h.delayRange[0]; spread > 0 {
		delay += time.Duration(h.rng.Int63n(int64(spread)))
	}
	return delay
}
