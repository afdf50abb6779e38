package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/output"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/steps"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/uploader"
)

// maxUploadBytes bounds one multipart Copy Template request.
const maxUploadBytes = 64 << 20

// TemplateRequest is the body of the run and step endpoints.
type TemplateRequest struct {
	SheetURL       string `json:"sheetUrl"`
	ShopCode       string `json:"shopCode"`
	ImageBaseURL   string `json:"imageBaseUrl"`
	CoverBaseURL   string `json:"coverBaseUrl"`
	DetailsBaseURL string `json:"detailsBaseUrl"`
	OptionBaseURL  string `json:"optionBaseUrl"`
	Mode           string `json:"mode"`
	Mandatory      *bool  `json:"mandatory"`
}

func (r TemplateRequest) toRequest() (masstemplate.Request, error) {
	mode, ok := masstemplate.ParseMode(strings.TrimSpace(r.Mode))
	if !ok {
		return masstemplate.Request{}, fmt.Errorf("%w: invalid mode %q", masstemplate.ErrInvalidRequest, r.Mode)
	}
	req := masstemplate.Request{
		Spreadsheet: strings.TrimSpace(r.SheetURL),
		ShopCode:    r.ShopCode,
		Images: steps.ImageBases{
			Base:    strings.TrimSpace(r.ImageBaseURL),
			Cover:   strings.TrimSpace(r.CoverBaseURL),
			Details: strings.TrimSpace(r.DetailsBaseURL),
			Option:  strings.TrimSpace(r.OptionBaseURL),
		},
		Mandatory: r.Mandatory,
	}
	if r.Mode != "" {
		req.Mode = mode
	}
	return req, nil
}

func (s *Server) bind(c *gin.Context) (masstemplate.Request, bool) {
	var body TemplateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return masstemplate.Request{}, false
	}
	req, err := body.toRequest()
	if err != nil {
		s.fail(c, err)
		return masstemplate.Request{}, false
	}
	return req, true
}

// Health handles the health check endpoint
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
	})
}

// Ready reports ready once a Creator is wired.
func (s *Server) Ready(c *gin.Context) {
	if s.creator == nil || s.creator.Opener == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "service": ServiceName})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"service": ServiceName,
	})
}

// CreateTemplate runs the whole pipeline.
func (s *Server) CreateTemplate(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}
	report, err := s.creator.Run(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

// RunStep runs the step named in the path.
func (s *Server) RunStep(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}
	entry, err := s.creator.RunStep(c.Request.Context(), req, c.Param("step"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error(), "step": entry})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Export downloads TEM_OUTPUT as an xlsx or csv attachment.
func (s *Server) Export(c *gin.Context) {
	format, err := output.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := s.creator.Export(c.Request.Context(), c.Query("sheetUrl"), format)
	if err != nil {
		s.fail(c, err)
		return
	}
	shop := c.Query("shopCode")
	if shop == "" {
		shop = s.creator.Config.ShopCode
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName(shop)))
	c.Data(http.StatusOK, format.ContentType(), data)
}

// CopyTemplate copies uploaded BASIC, MEDIA and SALES exports into the
// spreadsheet. All three files are required.
func (s *Server) CopyTemplate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sheet := strings.TrimSpace(c.PostForm("sheetUrl"))
	if sheet == "" {
		s.fail(c, masstemplate.ErrMissingSpreadsheet)
		return
	}

	files, err := readUploads(form.File["files"])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if missing := missingTabs(files); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing files for: " + strings.Join(missing, ", ")})
		return
	}

	wb, err := s.creator.Opener.Open(c.Request.Context(), sheet)
	if err != nil {
		s.fail(c, fmt.Errorf("open spreadsheet: %w", err))
		return
	}
	defer store.Close(wb)
	logs := s.uploader.Apply(c.Request.Context(), wb, files)
	lines := make([]string, len(logs))
	for i, l := range logs {
		lines[i] = l.String()
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "lines": lines})
}

func readUploads(headers []*multipart.FileHeader) ([]uploader.File, error) {
	files := make([]uploader.File, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", h.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", h.Filename, err)
		}
		files = append(files, uploader.File{Name: h.Filename, Data: data})
	}
	return files, nil
}

func missingTabs(files []uploader.File) []string {
	seen := map[string]bool{}
	for _, f := range files {
		seen[uploader.TargetTab(f.Name)] = true
	}
	var missing []string
	for _, tab := range uploader.Tabs {
		if !seen[tab] {
			missing = append(missing, tab)
		}
	}
	return missing
}
