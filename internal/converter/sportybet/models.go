package sportybet

import (
	"encoding/json"

	"github.com/Vodeneev/slipconv/internal/pkg/models"
)

// bizCodeOK is the share endpoint's success code.
const bizCodeOK = 10000

// ShareResponse is the envelope of /api/{country}/orders/share/{code}.
// Events are kept raw so one malformed event cannot spoil the rest.
type ShareResponse struct {
	BizCode json.RawMessage `json:"bizCode"`
	Message json.RawMessage `json:"message"`
	Data    *struct {
		Outcomes []json.RawMessage `json:"outcomes"`
	} `json:"data"`
}

// Event is one match of a shared slip ("outcomes" in Sportybet's naming).
type Event struct {
	EventID           json.RawMessage `json:"eventId"`
	HomeTeamName      json.RawMessage `json:"homeTeamName"`
	AwayTeamName      json.RawMessage `json:"awayTeamName"`
	EstimateStartTime json.RawMessage `json:"estimateStartTime"`
	Markets           []Market        `json:"markets"`
}

type Market struct {
	Desc      json.RawMessage `json:"desc"`
	Specifier json.RawMessage `json:"specifier"`
	Outcomes  []Outcome       `json:"outcomes"`
}

type Outcome struct {
	Desc       json.RawMessage `json:"desc"`
	Odds       json.RawMessage `json:"odds"`
	IsSelected json.RawMessage `json:"isSelected"`
}

// Block converts a raw market into the classifier's input.
func (m Market) Block() models.MarketBlock {
	block := models.MarketBlock{
		Descriptor: models.StringField(m.Desc),
		Specifier:  models.StringField(m.Specifier),
		Outcomes:   make([]models.OutcomeBlock, 0, len(m.Outcomes)),
	}
	for _, o := range m.Outcomes {
		block.Outcomes = append(block.Outcomes, models.OutcomeBlock{
			Label:    models.StringField(o.Desc),
			Price:    models.DecimalField(o.Odds),
			Selected: models.BoolField(o.IsSelected),
		})
	}
	return block
}
