// Package services implements the domain services: payload normalization and
// the cached, policy-enforcing orchestration over upstream clients, entity
// lookups, the TTL memo cache, and the daily ledger.
package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/moodcast/moodcast/internal/core/domain"
	"github.com/moodcast/moodcast/internal/core/ports"
)

// NormalizeObservation validates a raw current-weather payload and produces
// a complete Observation. The condition list, temperature block, and location
// identity are mandatory; a payload missing any of them is rejected. Optional
// blocks the provider omitted (wind, clouds, rain, snow) are filled with
// canonical zero values so downstream consumers never special-case absence.
// Pure function; the input is not modified.
func NormalizeObservation(payload *ports.ObservationPayload) (domain.Observation, bool) {
	if payload == nil || payload.Conditions == nil || payload.Temperature == nil || payload.ID == 0 {
		return domain.Observation{}, false
	}

	return domain.Observation{
		OpenWeatherID: payload.ID,
		CityName:      payload.Name,
		Conditions:    normalizeConditions(payload.Conditions),
		Temperature:   normalizeTemperature(payload.Temperature),
		Wind:          normalizeWind(payload.Wind),
		Cloud:         normalizeCloud(payload.Clouds),
		Rain:          normalizePrecipitation(payload.Rain),
		Snow:          normalizePrecipitation(payload.Snow),
	}, true
}

// NormalizeForecastSet validates a raw forecast payload and produces a
// complete ForecastSet. The city block and a non-empty entry list are
// mandatory, and every entry must carry its temperature block and condition
// list. Optional blocks are defaulted per entry.
func NormalizeForecastSet(payload *ports.ForecastSetPayload) (domain.ForecastSet, bool) {
	if payload == nil || payload.City == nil || len(payload.Entries) == 0 {
		return domain.ForecastSet{}, false
	}

	for _, entry := range payload.Entries {
		if entry.Temperature == nil || entry.Conditions == nil {
			return domain.ForecastSet{}, false
		}
	}

	forecasts := make([]domain.Forecast, 0, len(payload.Entries))

	for _, entry := range payload.Entries {
		forecasts = append(forecasts, domain.Forecast{
			At:          time.Unix(entry.Timestamp, 0).UTC(),
			Conditions:  normalizeConditions(entry.Conditions),
			Temperature: normalizeTemperature(entry.Temperature),
			Wind:        normalizeWind(entry.Wind),
			Cloud:       normalizeCloud(entry.Clouds),
			Rain:        normalizePrecipitation(entry.Rain),
			Snow:        normalizePrecipitation(entry.Snow),
		})
	}

	return domain.ForecastSet{
		OpenWeatherID: payload.City.ID,
		CityName:      payload.City.Name,
		Forecasts:     forecasts,
	}, true
}

// NormalizeQuote validates a raw quote payload and produces a complete
// StockQuote. Symbol and latest price are mandatory; the change fields are
// defaulted to zero when the provider omits them. quotedAt stamps the quote
// since the provider does not.
func NormalizeQuote(payload *ports.QuotePayload, quotedAt time.Time) (domain.StockQuote, bool) {
	if payload == nil || payload.Symbol == "" || payload.LatestPrice == nil {
		return domain.StockQuote{}, false
	}

	quote := domain.StockQuote{
		Symbol:        payload.Symbol,
		CompanyName:   payload.CompanyName,
		Price:         *payload.LatestPrice,
		Change:        decimal.Zero,
		ChangePercent: decimal.Zero,
		QuotedAt:      quotedAt,
	}

	if payload.Change != nil {
		quote.Change = *payload.Change
	}

	if payload.ChangePercent != nil {
		quote.ChangePercent = *payload.ChangePercent
	}

	return quote, true
}

func normalizeConditions(conditions []ports.ConditionPayload) []domain.Condition {
	normalized := make([]domain.Condition, 0, len(conditions))

	for _, condition := range conditions {
		normalized = append(normalized, domain.Condition{
			ConditionID: condition.ID,
			Name:        condition.Main,
			Description: condition.Description,
			Icon:        condition.Icon,
		})
	}

	return normalized
}

func normalizeTemperature(temperature *ports.TemperaturePayload) domain.TemperatureReading {
	return domain.TemperatureReading{
		Temp:      temperature.Temp,
		FeelsLike: temperature.FeelsLike,
		TempMin:   temperature.TempMin,
		TempMax:   temperature.TempMax,
		Pressure:  temperature.Pressure,
		Humidity:  temperature.Humidity,
	}
}

func normalizeWind(wind *ports.WindPayload) domain.Wind {
	if wind == nil {
		return domain.Wind{}
	}

	return domain.Wind{Speed: wind.Speed, Degrees: wind.Deg}
}

func normalizeCloud(clouds *ports.CloudPayload) domain.Cloud {
	if clouds == nil {
		return domain.Cloud{}
	}

	return domain.Cloud{Cloudiness: clouds.All}
}

func normalizePrecipitation(precipitation *ports.PrecipitationPayload) domain.Precipitation {
	if precipitation == nil {
		return domain.Precipitation{
			OneHourVolume:   decimal.Zero,
			ThreeHourVolume: decimal.Zero,
		}
	}

	return domain.Precipitation{
		OneHourVolume:   precipitation.OneHour,
		ThreeHourVolume: precipitation.ThreeHour,
	}
}
