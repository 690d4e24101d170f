package public

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/langowen/corra/internal/entities"
	"github.com/pkg/errors"
)

type ValuesRequest struct {
	StartDate string `json:"startdate"`
	EndDate   string `json:"enddate"`
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>CORRA / USDCAD correlation</title>
</head>
<body>
<h1>CORRA / USDCAD correlation</h1>
<form action="/api/values" method="post">
<p><label for="startdate">Start date</label>
<input type="text" id="startdate" name="startdate" placeholder="YYYY-MM-DD"></p>
<p><label for="enddate">End date</label>
<input type="text" id="enddate" name="enddate" placeholder="YYYY-MM-DD"></p>
<p><input type="submit" value="Submit"></p>
</form>
</body>
</html>
`

func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(indexPage)); err != nil {
		slog.Error("Failed to write index page", "error", err)
	}
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) GetValues(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) PostValues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := decodeValuesRequest(r)

	res, err := s.service.Analyze(ctx, req.StartDate, req.EndDate)
	if err != nil {
		var verr *entities.ValidationError
		if errors.As(err, &verr) {
			code := http.StatusOK
			if s.cfg.HTTPServer.StrictStatus {
				code = http.StatusBadRequest
			}
			RespondWithError(w, code, verr.Message)
			return
		}

		slog.Error("Analysis failed", "error", err)
		RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	RespondWithJSON(w, http.StatusOK, res.View())
}

// decodeValuesRequest reads form posts from the landing page and JSON from everything else.
// A body that cannot be decoded yields empty dates, which fail validation.
func decodeValuesRequest(r *http.Request) ValuesRequest {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return ValuesRequest{
			StartDate: r.FormValue("startdate"),
			EndDate:   r.FormValue("enddate"),
		}
	}

	var req ValuesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode request body", "error", err)
		return ValuesRequest{}
	}

	return req
}
