package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chenBenjamin97/pool-analyzer/pkg/record"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/chenBenjamin97/pool-analyzer/pkg/video"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	for _, dir := range []string{"source", "ready", "temp", "artifacts"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, dir), 0766))
		viper.Set("directory."+dir, filepath.Join(root, dir))
	}
	viper.Set("video.prod_format", "mp4")
	t.Cleanup(viper.Reset)

	s := NewServer(context.Background(), video.DefaultConfig(), slog.New(slog.DiscardHandler))
	s.analyze = func(ctx context.Context, cfg video.Config, in, out string) (video.Summary, error) {
		if err := os.WriteFile(out, []byte("avi"), 0644); err != nil {
			return video.Summary{}, err
		}
		if err := utils.EnsureDir(cfg.ArtifactsDir); err != nil {
			return video.Summary{}, err
		}
		_, err := record.WriteFile(cfg.ArtifactsDir, utils.FirstTag, []record.Record{{X: 1, Y: 2, Width: 18, Height: 18, Label: 1}})
		return video.Summary{Frames: 3}, err
	}
	s.convert = func(ctx context.Context, src, dst string) error {
		data, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0644)
	}

	return s, s.SetRouter()
}

func uploadRequest(t *testing.T, name string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("video", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/Upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUpload_RunsAnalysisJob(t *testing.T) {
	_, r := setupServer(t)

	rec := serve(r, uploadRequest(t, "game.mp4", []byte("video bytes")))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	id := resp["id"]
	require.NotEmpty(t, id)

	var job Job
	require.Eventually(t, func() bool {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/Status?id="+id, nil))
		if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &job) != nil {
			return false
		}
		return job.State != JobRunning
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, JobDone, job.State)
	assert.Equal(t, "game.mp4", job.Name)
	require.NotNil(t, job.Summary)
	assert.Equal(t, 3, job.Summary.Frames)

	assert.FileExists(t, filepath.Join(viper.GetString("directory.ready"), "game.mp4"))
	assert.NoFileExists(t, filepath.Join(viper.GetString("directory.temp"), "game.avi"))

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/Detections?name=game&tag=first", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []record.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	assert.Equal(t, []record.Record{{X: 1, Y: 2, Width: 18, Height: 18, Label: 1}}, recs)

	// artifacts live apart from the videos
	assert.DirExists(t, filepath.Join(viper.GetString("directory.artifacts"), "game"))
	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/ReadyVideosNames", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var ready []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ready))
	assert.Equal(t, []string{"game.mp4"}, ready)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/Play?name=game&analyzed=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "avi", rec.Body.String())
}

func TestUpload_DuplicateName(t *testing.T) {
	_, r := setupServer(t)

	require.NoError(t, os.WriteFile(filepath.Join(viper.GetString("directory.source"), "game.mp4"), []byte("x"), 0644))

	rec := serve(r, uploadRequest(t, "game.mp4", []byte("video bytes")))
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
}

func TestUpload_FailedJob(t *testing.T) {
	s, r := setupServer(t)
	s.analyze = func(ctx context.Context, cfg video.Config, in, out string) (video.Summary, error) {
		return video.Summary{}, errors.Wrap(utils.ErrGeometry, "Detect")
	}

	rec := serve(r, uploadRequest(t, "broken.mp4", []byte("video bytes")))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Eventually(t, func() bool {
		job, ok := s.jobs.Get(resp["id"])
		return ok && job.State == JobFailed
	}, 5*time.Second, 10*time.Millisecond)

	job, _ := s.jobs.Get(resp["id"])
	assert.Contains(t, job.Error, utils.ErrGeometry.Error())
}

func TestStatus_UnknownJob(t *testing.T) {
	_, r := setupServer(t)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/Status?id=nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlay_InvalidParams(t *testing.T) {
	_, r := setupServer(t)

	assert.Equal(t, http.StatusNotAcceptable, serve(r, httptest.NewRequest(http.MethodGet, "/api/Play?analyzed=true", nil)).Code)
	assert.Equal(t, http.StatusNotAcceptable, serve(r, httptest.NewRequest(http.MethodGet, "/api/Play?name=game&analyzed=maybe", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/api/Play?name=game&analyzed=false", nil)).Code)
}

func TestDetections_InvalidParams(t *testing.T) {
	_, r := setupServer(t)

	for _, query := range []string{"?name=game", "?name=game&tag=middle", "?tag=first", "?name=../etc&tag=first"} {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/Detections"+query, nil))
		assert.Equal(t, http.StatusNotAcceptable, rec.Code, query)
	}

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/Detections?name=game&tag=last", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMinimap_Thumbnail(t *testing.T) {
	_, r := setupServer(t)

	dir := artifactsDir("game")
	require.NoError(t, utils.EnsureDir(dir))
	img := imaging.New(utils.CanonicalWidth, utils.CanonicalHeight, color.NRGBA{34, 110, 60, 255})
	require.NoError(t, imaging.Save(img, filepath.Join(dir, video.MinimapFileName(utils.LastTag))))

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/Minimap?name=game&tag=last&width=100", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	thumb, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 100, thumb.Bounds().Dx())
	assert.Equal(t, 200, thumb.Bounds().Dy())

	assert.Equal(t, http.StatusNotAcceptable, serve(r, httptest.NewRequest(http.MethodGet, "/api/Minimap?name=game&tag=last&width=9000", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/api/Minimap?name=game&tag=first", nil)).Code)
}

func TestJobs(t *testing.T) {
	jobs := NewJobs()

	job := jobs.Start("a.mp4")
	assert.Equal(t, JobRunning, job.State)

	got, ok := jobs.Get(job.ID)
	require.True(t, ok)
	assert.Nil(t, got.Finished)

	jobs.Finish(job.ID, video.Summary{Frames: 10}, nil)
	got, _ = jobs.Get(job.ID)
	assert.Equal(t, JobDone, got.State)
	assert.NotNil(t, got.Finished)

	jobs.Finish("unknown", video.Summary{}, nil)
	_, ok = jobs.Get("unknown")
	assert.False(t, ok)
}

func TestServe_StopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(ctx, video.DefaultConfig(), slog.New(slog.DiscardHandler))
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/Status?id=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server still running after cancel")
	}

	_, err = http.Get("http://" + ln.Addr().String() + "/api/Status?id=nope")
	assert.Error(t, err)
}
