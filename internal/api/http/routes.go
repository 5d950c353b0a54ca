package httpapi

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/plnr-app/dayplanner/internal/planner"
	"github.com/plnr-app/dayplanner/internal/uploads"
	"github.com/plnr-app/dayplanner/internal/weather"
)

var validate = validator.New()

// Deps bundles the services the handlers operate on.
type Deps struct {
	Planner *planner.Service
	Weather *weather.Gateway
	Uploads *uploads.Service

	// PublicBaseURL, when non-empty, overrides the host used to build
	// absolute image URLs.
	PublicBaseURL string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	api := app.Group("/api")

	api.Get("/days/:date", func(c *fiber.Ctx) error {
		payload, err := deps.Planner.GetDay(c.Context(), c.Params("date"))
		if err != nil {
			return mapPlannerError(err)
		}
		return c.JSON(payload)
	})

	api.Put("/days/:date", func(c *fiber.Ctx) error {
		var payload planner.DayPayload
		if err := c.BodyParser(&payload); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid day payload")
		}
		if err := validate.Struct(payload); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		updatedAt, err := deps.Planner.SaveDay(c.Context(), c.Params("date"), payload)
		if err != nil {
			return mapPlannerError(err)
		}
		return c.JSON(fiber.Map{
			"ok":        true,
			"updatedAt": updatedAt,
		})
	})

	api.Get("/month-notes", func(c *fiber.Ctx) error {
		year, err := strconv.Atoi(c.Query("year"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "year query parameter is required")
		}
		month, err := strconv.Atoi(c.Query("month"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "month query parameter is required")
		}

		notes, err := deps.Planner.MonthNotes(c.Context(), year, month)
		if err != nil {
			return mapPlannerError(err)
		}
		return c.JSON(fiber.Map{"notes": notes})
	})

	registerWeatherRoutes(api, deps.Weather)

	api.Post("/uploads/images", func(c *fiber.Ctx) error {
		date, err := planner.ParseDate(c.Query("date"))
		if err != nil {
			return mapPlannerError(err)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		data, err := readMultipartFile(fh)
		if err != nil {
			return err
		}

		res, err := deps.Uploads.Save(c.Context(), date, fh.Filename, data)
		if errors.Is(err, uploads.ErrUnsupportedType) || errors.Is(err, uploads.ErrEmptyFile) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return err
		}

		urlPath := "/uploads/" + res.Filename
		imageURL := urlPath
		if base := resolveBaseURL(c, deps.PublicBaseURL); base != "" {
			imageURL = base + urlPath
		}
		return c.JSON(planner.GridImage{
			ID:     res.ID,
			URL:    imageURL,
			Width:  res.Width,
			Height: res.Height,
		})
	})
}

func registerWeatherRoutes(api fiber.Router, gw *weather.Gateway) {
	api.Get("/weather/forecast", func(c *fiber.Ctx) error {
		lat, lon, err := parseCoordinates(c)
		if err != nil {
			return err
		}

		params := weather.ForecastParams{
			Latitude:  lat,
			Longitude: lon,
			Daily:     c.Query("daily"),
			Timezone:  c.Query("timezone"),
			StartDate: c.Query("start_date"),
			EndDate:   c.Query("end_date"),
		}
		if v := c.Query("forecast_days"); v != "" {
			days, err := strconv.Atoi(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "forecast_days must be an integer")
			}
			params.ForecastDays = &days
		}

		body, err := gw.Forecast(c.Context(), params)
		if err != nil {
			return mapUpstreamError(err)
		}
		return c.Type("json").Send(body)
	})

	api.Get("/weather/geocode", func(c *fiber.Ctx) error {
		var q geocodeQuery
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		body, err := gw.Geocode(c.Context(), weather.GeocodeParams{
			Name:     q.Name,
			Count:    q.Count,
			Language: q.Language,
			Format:   q.Format,
		})
		if err != nil {
			return mapUpstreamError(err)
		}
		return c.Type("json").Send(body)
	})

	api.Get("/weather/reverse", func(c *fiber.Ctx) error {
		lat, lon, err := parseCoordinates(c)
		if err != nil {
			return err
		}

		body, err := gw.Reverse(c.Context(), weather.ReverseParams{
			Latitude:  lat,
			Longitude: lon,
			Language:  c.Query("language"),
			Format:    c.Query("format"),
		})
		if err != nil {
			return mapUpstreamError(err)
		}
		return c.Type("json").Send(body)
	})
}

// geocodeQuery holds query parameters for the place-name search proxy.
type geocodeQuery struct {
	Name     string `query:"name" validate:"required"`
	Count    int    `query:"count" validate:"omitempty,min=1,max=20"`
	Language string `query:"language"`
	Format   string `query:"format"`
}

func parseCoordinates(c *fiber.Ctx) (float64, float64, error) {
	latStr := c.Query("latitude")
	lonStr := c.Query("longitude")
	if latStr == "" || lonStr == "" {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "latitude and longitude query parameters are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "latitude must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fiber.NewError(fiber.StatusBadRequest, "longitude must be a number")
	}
	return lat, lon, nil
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "could not read uploaded file")
	}
	return data, nil
}

// mapPlannerError converts planner validation failures to client errors and
// passes everything else through as a server error.
func mapPlannerError(err error) error {
	switch {
	case errors.Is(err, planner.ErrBadDate),
		errors.Is(err, planner.ErrDateMismatch),
		errors.Is(err, planner.ErrBadMonth):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}

// mapUpstreamError relays the upstream status when one exists; anything else
// is a bad gateway.
func mapUpstreamError(err error) error {
	var ue *weather.UpstreamError
	if errors.As(err, &ue) {
		return fiber.NewError(ue.Status, ue.Error())
	}
	return fiber.NewError(fiber.StatusBadGateway, "weather API request failed")
}

// resolveBaseURL decides the absolute base for image URLs: the configured
// public base URL when set, else the forwarded (or direct) host of the
// request, else empty for a relative URL.
func resolveBaseURL(c *fiber.Ctx, publicBaseURL string) string {
	if publicBaseURL != "" {
		return publicBaseURL
	}
	proto := c.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = c.Protocol()
	}
	host := c.Get("X-Forwarded-Host")
	if host == "" {
		host = c.Hostname()
	}
	if host == "" {
		return ""
	}
	return proto + "://" + host
}
