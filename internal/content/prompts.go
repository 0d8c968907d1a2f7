package content

import (
	"fmt"
	"strings"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// System prompts for the GenAI calls. User prompts are assembled from the
// session transcript by the render helpers below.

const productContextSystem = `You are a product analyst preparing background notes for a survey designer.
Summarize the product in a short paragraph: what it is, who it is for, and which
attributes a buyer would care about. Be factual and concise. Do not invent
features that are not listed.`

const shopperContextSystem = `You are a customer-insights analyst preparing background notes for a survey designer.
Summarize what is known about this shopper in a short paragraph: their traits,
their purchase history signals, and how experienced they are at writing reviews.
Be factual and concise.`

const styleAnalysisSystem = `You are a writing-style analyst. Given past product reviews written by one
person, describe their authorial voice in a few sentences: typical length,
vocabulary, sentence rhythm, how they use specifics, and overall tone. The notes
will be used to draft new text in the same voice.`

const questionGenerationSystem = `You are a survey designer helping a shopper reflect on a product they bought.
Write multiple-choice questions about their experience with the product.

Rules for every question:
- Ask about one concrete aspect of the product experience.
- Provide between 4 and 6 answer options.
- Options must be mutually distinct and cover the plausible range of experiences.
- Include "Other" as the final option so the shopper can type their own answer.
- If several options could apply at once, set allow_multiple to true and include
  "All of the above" as an option.
- Never repeat an aspect that was already asked about.
- Keep the reasoning field to one sentence explaining why the question is worth asking.`

const sentimentSystem = `You classify the overall sentiment of a completed product survey.
Read the transcript and answer with exactly one band:
- "good" when the experience was clearly positive
- "okay" when it was mixed or lukewarm
- "bad" when it was clearly negative
Skipped questions carry no signal. Keep the rationale to one sentence.`

const reviewGenerationSystem = `You ghost-write product reviews on behalf of a shopper, based on their survey
answers. Draft distinct candidate reviews they could post as their own.

Rules for every review:
- Only use facts from the survey transcript. Never invent experiences.
- Match the star rating to the sentiment band you are given; use only the
  permitted star values.
- Write in the shopper's own voice using the style notes when provided.
- Vary the candidates: different angle, different length, different tone label.
- highlights lists the 2-4 product aspects the review leans on.`

// renderProductPrompt flattens a product record for context summarization.
func renderProductPrompt(product *models.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", product.Name)
	if product.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", product.Category)
	}
	if product.Price > 0 {
		fmt.Fprintf(&b, "Price: $%.2f\n", product.Price)
	}
	if product.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", product.Description)
	}
	if len(product.Features) > 0 {
		fmt.Fprintf(&b, "Features:\n")
		for _, f := range product.Features {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}

// renderShopperPrompt flattens a shopper record plus their intake form for
// context summarization.
func renderShopperPrompt(shopper *models.Shopper, form models.IntakeForm, pastReviewCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shopper: %s\n", shopper.DisplayName)
	if len(shopper.Traits) > 0 {
		fmt.Fprintf(&b, "Traits: %s\n", strings.Join(shopper.Traits, ", "))
	}
	fmt.Fprintf(&b, "Has written reviews before: %t\n", form.HasPastReviews)
	fmt.Fprintf(&b, "Has purchased similar products: %t\n", form.PurchasedSimilar)
	fmt.Fprintf(&b, "Past reviews on file: %d\n", pastReviewCount)
	return b.String()
}

// renderPastReviews flattens a shopper's past reviews for style analysis.
func renderPastReviews(reviews []models.Review) string {
	var b strings.Builder
	for i, r := range reviews {
		fmt.Fprintf(&b, "Review %d (%d stars):\n%s\n\n", i+1, r.Stars, r.Text)
	}
	return b.String()
}

// renderTranscript flattens the question-and-answer history. Skipped entries
// are kept so the model knows what was declined.
func renderTranscript(session *models.SurveySession) string {
	var b strings.Builder
	for _, rec := range session.Answers {
		fmt.Fprintf(&b, "Q%d: %s\n", rec.QuestionNumber, rec.QuestionText)
		if rec.Skipped {
			b.WriteString("A: (skipped)\n")
		} else {
			fmt.Fprintf(&b, "A: %s\n", rec.Value.Display())
		}
	}
	return b.String()
}

// renderQuestionPrompt assembles the user prompt for a question-generation
// call. count is how many questions to produce this round.
func renderQuestionPrompt(session *models.SurveySession, count int, followUp bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product context:\n%s\n", session.ProductContext)
	fmt.Fprintf(&b, "Shopper context:\n%s\n", session.ShopperContext)
	if followUp {
		fmt.Fprintf(&b, "\nTranscript so far:\n%s", renderTranscript(session))
		b.WriteString("\nAlready asked:\n")
		for i, q := range session.Questions {
			fmt.Fprintf(&b, "- Q%d: %s\n", i+1, q.QuestionText)
		}
		fmt.Fprintf(&b, "\nWrite %d follow-up questions that dig into what the answers above surfaced.\n", count)
	} else {
		fmt.Fprintf(&b, "\nWrite the opening %d questions for this survey.\n", count)
	}
	return b.String()
}

// renderSentimentPrompt assembles the user prompt for sentiment
// classification.
func renderSentimentPrompt(session *models.SurveySession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product context:\n%s\n", session.ProductContext)
	fmt.Fprintf(&b, "\nCompleted transcript:\n%s", renderTranscript(session))
	return b.String()
}

// renderReviewPrompt assembles the user prompt for a review-generation call.
func renderReviewPrompt(session *models.SurveySession, band models.SentimentBand, count int, regenerate bool) string {
	stars := models.StarsForBand(band)
	labels := make([]string, len(stars))
	for i, s := range stars {
		labels[i] = fmt.Sprintf("%d", s)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Product context:\n%s\n", session.ProductContext)
	fmt.Fprintf(&b, "Shopper context:\n%s\n", session.ShopperContext)
	if session.StyleNotes != "" {
		fmt.Fprintf(&b, "Style notes:\n%s\n", session.StyleNotes)
	}
	fmt.Fprintf(&b, "\nSurvey transcript:\n%s", renderTranscript(session))
	fmt.Fprintf(&b, "\nSentiment band: %s (permitted star ratings: %s)\n", band, strings.Join(labels, ", "))
	fmt.Fprintf(&b, "%s\n", toneGuide())
	if regenerate {
		fmt.Fprintf(&b, "Write %d fresh candidate reviews. The previous set was rejected, so take different angles this time.\n", count)
	} else {
		fmt.Fprintf(&b, "Write %d candidate reviews.\n", count)
	}
	return b.String()
}
