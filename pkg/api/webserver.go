package api

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/chenBenjamin97/pool-analyzer/pkg/record"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/chenBenjamin97/pool-analyzer/pkg/video"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	defaultThumbnailWidth = 200
	maxThumbnailWidth     = utils.CanonicalWidth
	shutdownTimeout       = 5 * time.Second
)

// Server serves the uploaded and analyzed videos and runs new analyses in the background.
type Server struct {
	ctx  context.Context
	cfg  video.Config
	log  *slog.Logger
	jobs *Jobs

	analyze func(ctx context.Context, cfg video.Config, inputPath, outputPath string) (video.Summary, error)
	convert func(ctx context.Context, src, dst string) error
}

// NewServer returns a server whose background analyses use cfg and stop when ctx is done.
func NewServer(ctx context.Context, cfg video.Config, logger *slog.Logger) *Server {
	return &Server{
		ctx:     ctx,
		cfg:     cfg,
		log:     logger,
		jobs:    NewJobs(),
		analyze: video.Analyze,
		convert: video.Convert,
	}
}

//artifactsDir returns the directory holding the snapshots of given video (name without extension)
func artifactsDir(name string) string {
	return path.Join(viper.GetString("directory.artifacts"), name)
}

// Serve answers requests on ln until the server's context is done, then shuts down gracefully.
// A cancelled context is a clean stop and returns nil.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{Handler: s.SetRouter()}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		return errors.Wrap(err, "Serve")
	case <-s.ctx.Done():
	}

	s.log.Info("Serve: shutting down", "addr", ln.Addr().String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("Serve: graceful shutdown failed, closing", "err", err)
		srv.Close()
	}

	if err := <-serveErr; err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Serve")
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "ListenAndServe: '%s'", addr)
	}
	return s.Serve(ln)
}

func (s *Server) SetRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	//serve html pages to client, when configured
	if static := viper.GetString("frontend.static-files-path"); static != "" {
		r.Static("/client", static)
		r.StaticFile("/", static+"home_page/dist/index.html")
	}

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/ReadyVideosNames", func(ctx *gin.Context) {
		if names, err := utils.ListDir(viper.GetString("directory.ready")); err != nil {
			ctx.Status(http.StatusInternalServerError)
		} else {
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/UserUploadsVideosNames", func(ctx *gin.Context) {
		if names, err := utils.ListDir(viper.GetString("directory.source")); err != nil {
			ctx.Status(http.StatusInternalServerError)
		} else {
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/Play", func(ctx *gin.Context) {
		videoName := ctx.Query("name")
		if videoName == "" {
			ctx.Status(http.StatusNotAcceptable) //missing url parameter
			return
		}

		analyzed := ctx.Query("analyzed")
		if analyzed != "true" && analyzed != "false" {
			ctx.Status(http.StatusNotAcceptable) //missing url parameter
			return
		}

		var videoPath string
		if analyzed == "true" {
			videoPath = path.Join(viper.GetString("directory.ready"), videoName+"."+viper.GetString("video.prod_format"))
		} else {
			videoPath = path.Join(viper.GetString("directory.source"), videoName+"."+viper.GetString("video.prod_format"))
		}

		if _, err := os.Stat(videoPath); err != nil {
			if os.IsNotExist(err) {
				ctx.Status(http.StatusNotFound)
			} else {
				ctx.Status(http.StatusInternalServerError)
			}
			return
		}

		ctx.Header("Content-Type", "video/"+viper.GetString("video.prod_format"))
		http.ServeFile(ctx.Writer, ctx.Request, videoPath)
	})

	apiRoutes.POST("/Upload", func(ctx *gin.Context) {
		file, fHeader, err := ctx.Request.FormFile("video")
		if err != nil {
			ctx.Status(http.StatusBadRequest)
			return
		}
		defer file.Close()

		fileName := path.Base(fHeader.Filename)
		if existNames, err := utils.ListDir(viper.GetString("directory.source")); err != nil {
			ctx.Status(http.StatusInternalServerError)
			return
		} else if utils.InSlice(fileName, existNames) {
			ctx.Status(http.StatusNotAcceptable)
			return
		}

		s.log.Info("api/Upload: received new file", "name", fileName, "size", fHeader.Size)

		srcFilePath := path.Join(viper.GetString("directory.source"), fileName)
		if err := saveUpload(file, srcFilePath); err != nil {
			s.log.Error("api/Upload: could not write file", "path", srcFilePath, "err", err)
			ctx.Status(http.StatusInternalServerError)
			return
		}

		job := s.jobs.Start(fileName)
		go s.runJob(job.ID, fileName)

		ctx.JSON(http.StatusAccepted, gin.H{"id": job.ID})
	})

	apiRoutes.GET("/Status", func(ctx *gin.Context) {
		job, ok := s.jobs.Get(ctx.Query("id"))
		if !ok {
			ctx.Status(http.StatusNotFound)
			return
		}
		ctx.JSON(http.StatusOK, job)
	})

	apiRoutes.GET("/Detections", func(ctx *gin.Context) {
		name, tag, ok := artifactParams(ctx)
		if !ok {
			return
		}

		recs, err := record.ReadFile(artifactsDir(name), tag)
		if err != nil {
			if os.IsNotExist(errors.Cause(err)) {
				ctx.Status(http.StatusNotFound)
			} else {
				s.log.Error("api/Detections: could not read records", "name", name, "tag", tag, "err", err)
				ctx.Status(http.StatusInternalServerError)
			}
			return
		}
		ctx.JSON(http.StatusOK, recs)
	})

	apiRoutes.GET("/Minimap", func(ctx *gin.Context) {
		name, tag, ok := artifactParams(ctx)
		if !ok {
			return
		}

		width := defaultThumbnailWidth
		if w := ctx.Query("width"); w != "" {
			parsed, err := strconv.Atoi(w)
			if err != nil || parsed <= 0 || parsed > maxThumbnailWidth {
				ctx.Status(http.StatusNotAcceptable)
				return
			}
			width = parsed
		}

		img, err := imaging.Open(path.Join(artifactsDir(name), video.MinimapFileName(tag)))
		if err != nil {
			ctx.Status(http.StatusNotFound)
			return
		}

		ctx.Header("Content-Type", "image/png")
		if err := imaging.Encode(ctx.Writer, imaging.Resize(img, width, 0, imaging.Lanczos), imaging.PNG); err != nil {
			s.log.Error("api/Minimap: could not encode thumbnail", "name", name, "err", err)
		}
	})

	return r
}

//artifactParams validates 'name' and 'tag' url parameters, answers the request itself when they are invalid
func artifactParams(ctx *gin.Context) (string, string, bool) {
	name := ctx.Query("name")
	tag := ctx.Query("tag")
	if name == "" || name != path.Base(name) || (tag != utils.FirstTag && tag != utils.LastTag) {
		ctx.Status(http.StatusNotAcceptable)
		return "", "", false
	}
	return name, tag, true
}

func saveUpload(src io.Reader, dst string) error {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0444)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return err
	}
	return f.Close()
}

//runJob analyzes an uploaded video, the result lands in 'ready' directory converted to the production format
func (s *Server) runJob(id, fileName string) {
	name := utils.BaseName(fileName)
	srcVideoPath := path.Join(viper.GetString("directory.source"), fileName)
	tmpVideoPath := path.Join(viper.GetString("directory.temp"), name+".avi")
	outputVideoPath := path.Join(viper.GetString("directory.ready"), name+"."+viper.GetString("video.prod_format"))

	cfg := s.cfg
	cfg.Preview = false
	cfg.ArtifactsDir = artifactsDir(name)
	cfg.Logger = s.log.With("job", id)

	summary, err := s.analyze(s.ctx, cfg, srcVideoPath, tmpVideoPath)
	if err == nil {
		err = s.convert(s.ctx, tmpVideoPath, outputVideoPath)
		os.Remove(tmpVideoPath) //'.avi' temp file is not needed anymore
	}

	if err != nil {
		cfg.Logger.Error("runJob: analysis failed", "name", fileName, "err", err)
	} else {
		cfg.Logger.Info("runJob: analysis done", "name", fileName, "frames", summary.Frames, "failed", summary.Failed)
	}
	s.jobs.Finish(id, summary, err)
}

// requestLogger logs every request through the server's slog logger.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()
		s.log.Debug("http request",
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
		)
	}
}
