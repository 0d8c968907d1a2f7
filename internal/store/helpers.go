package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// marshalStrings encodes a string slice as JSON for storage, with nil and
// empty slices stored as empty strings.
func marshalStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// unmarshalStrings decodes a JSON string column back into a slice.
func unmarshalStrings(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		return nil, err
	}
	return values, nil
}

// marshalSessionBlobs encodes the JSON columns of a survey session.
func marshalSessionBlobs(sess models.SurveySession) (questions, answers, reviews string, err error) {
	qb, err := json.Marshal(sess.Questions)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal session questions: %w", err)
	}
	ab, err := json.Marshal(sess.Answers)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal session answers: %w", err)
	}
	reviews = ""
	if sess.Reviews != nil {
		rb, err := json.Marshal(sess.Reviews)
		if err != nil {
			return "", "", "", fmt.Errorf("failed to marshal session reviews: %w", err)
		}
		reviews = string(rb)
	}
	return string(qb), string(ab), reviews, nil
}

// scanProduct scans a Product from a single sql.Row.
func scanProduct(row *sql.Row) (*models.Product, error) {
	var p models.Product
	var features sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &features); err != nil {
		return nil, err
	}
	values, err := unmarshalStrings(features)
	if err != nil {
		return nil, fmt.Errorf("failed to decode product features: %w", err)
	}
	p.Features = values
	return &p, nil
}

// scanProductRows scans a Product from sql.Rows.
func scanProductRows(rows *sql.Rows) (*models.Product, error) {
	var p models.Product
	var features sql.NullString
	if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &features); err != nil {
		return nil, err
	}
	values, err := unmarshalStrings(features)
	if err != nil {
		return nil, fmt.Errorf("failed to decode product features: %w", err)
	}
	p.Features = values
	return &p, nil
}

// scanShopper scans a Shopper from a single sql.Row.
func scanShopper(row *sql.Row) (*models.Shopper, error) {
	var sh models.Shopper
	var traits sql.NullString
	if err := row.Scan(&sh.ID, &sh.Email, &sh.DisplayName, &traits); err != nil {
		return nil, err
	}
	values, err := unmarshalStrings(traits)
	if err != nil {
		return nil, fmt.Errorf("failed to decode shopper traits: %w", err)
	}
	sh.Traits = values
	return &sh, nil
}

// scanReview scans a Review from sql.Rows.
func scanReview(rows *sql.Rows) (models.Review, error) {
	var r models.Review
	var sessionID, tone, highlights sql.NullString
	err := rows.Scan(&r.ID, &r.ShopperID, &r.ProductID, &sessionID, &r.Stars, &r.Text, &tone, &highlights, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	r.SessionID = sessionID.String
	r.Tone = tone.String
	values, err := unmarshalStrings(highlights)
	if err != nil {
		return r, fmt.Errorf("failed to decode review highlights: %w", err)
	}
	r.Highlights = values
	return r, nil
}

// scanSession scans a SurveySession from a single sql.Row, decoding the JSON
// transcript columns.
func scanSession(row *sql.Row) (*models.SurveySession, error) {
	var sess models.SurveySession
	var status string
	var questions, answers string
	var reviews sql.NullString
	err := row.Scan(&sess.ID, &sess.ShopperID, &sess.ProductID, &status, &questions, &answers,
		&sess.SkippedTotal, &sess.ConsecutiveSkips, &sess.ProductContext, &sess.ShopperContext,
		&sess.StyleNotes, &reviews, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sess.Status = models.SessionStatus(status)
	if questions != "" {
		if err := json.Unmarshal([]byte(questions), &sess.Questions); err != nil {
			return nil, fmt.Errorf("failed to decode session questions: %w", err)
		}
	}
	if answers != "" {
		if err := json.Unmarshal([]byte(answers), &sess.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode session answers: %w", err)
		}
	}
	if reviews.Valid && reviews.String != "" {
		var set models.ReviewSet
		if err := json.Unmarshal([]byte(reviews.String), &set); err != nil {
			return nil, fmt.Errorf("failed to decode session reviews: %w", err)
		}
		sess.Reviews = &set
	}
	return &sess, nil
}
