package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MediaPipeDetector implements Detector using a Python MediaPipe
// subprocess running the pose and hand models. Photos are validated and
// downscaled with gocv before being shipped to the subprocess as
// length-prefixed JPEG; the subprocess answers with one JSON line per
// photo.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	pythonPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	idleTimer  *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector. scriptPath and
// pythonPath override the default discovery when non-empty. The Python
// process is started lazily on first detection.
func NewMediaPipeDetector(config Config, scriptPath, pythonPath string) (*MediaPipeDetector, error) {
	if scriptPath == "" {
		scriptPath = findLandmarkScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("landmark_service.py not found")
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		pythonPath: pythonPath,
	}, nil
}

// Detect analyzes a photo and returns the detected pose and hand landmarks.
func (d *MediaPipeDetector) Detect(ctx context.Context, photo []byte) (*Frame, error) {
	data, err := d.preprocess(photo)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	// Write length (4 bytes big-endian) + JPEG data
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response jsonFrame
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	d.resetIdleTimer()

	return response.toFrame(), nil
}

// preprocess decodes the photo to verify it is a usable image and
// downscales it when wider than MaxImageWidth, re-encoding as JPEG.
func (d *MediaPipeDetector) preprocess(photo []byte) ([]byte, error) {
	mat, err := gocv.IMDecode(photo, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decode photo: empty image")
	}

	if d.config.MaxImageWidth > 0 && mat.Cols() > d.config.MaxImageWidth {
		scale := float64(d.config.MaxImageWidth) / float64(mat.Cols())
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(mat, &resized, image.Point{}, scale, scale, gocv.InterpolationArea)

		buf, err := gocv.IMEncode(".jpg", resized)
		if err != nil {
			return nil, fmt.Errorf("encode photo: %w", err)
		}
		defer buf.Close()
		out := make([]byte, len(buf.GetBytes()))
		copy(out, buf.GetBytes())
		return out, nil
	}

	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	defer buf.Close()
	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := d.pythonPath
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.scriptPath,
		fmt.Sprintf("--max-hands=%d", d.config.MaxHands),
		fmt.Sprintf("--min-confidence=%g", d.config.MinConfidence),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

// resetIdleTimer restarts the shutdown timer. The Python process is
// expensive to keep resident, so it is stopped after 30 seconds without
// a detection and restarted on demand.
func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(30*time.Second, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.shutdown()
	})
}

func findLandmarkScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/landmark_service.py",
		"../scripts/landmark_service.py",
		filepath.Join(execDir, "scripts/landmark_service.py"),
		filepath.Join(os.Getenv("HOME"), ".deco/scripts/landmark_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".deco/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonFrame represents the JSON structure from the Python service.
type jsonFrame struct {
	Pose  []jsonJoint `json:"pose"`
	Hands []jsonHand  `json:"hands"`
}

type jsonJoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (f jsonFrame) toFrame() *Frame {
	frame := &Frame{}

	if len(f.Pose) > 0 {
		pose := &PoseLandmarks{}
		for i := 0; i < NumPoseJoints && i < len(f.Pose); i++ {
			pose.Joints[i] = PoseJoint{
				Point:      Point3D{X: f.Pose[i].X, Y: f.Pose[i].Y, Z: f.Pose[i].Z},
				Visibility: f.Pose[i].Visibility,
			}
		}
		frame.Pose = pose
	}

	for _, h := range f.Hands {
		lm := HandLandmarks{
			Handedness: h.Handedness,
			Score:      h.Score,
		}
		for i := 0; i < NumHandLandmarks && i < len(h.Points); i++ {
			lm.Points[i] = Point3D{X: h.Points[i].X, Y: h.Points[i].Y, Z: h.Points[i].Z}
		}
		frame.Hands = append(frame.Hands, lm)
	}

	return frame
}
