// Package predict supplies predicted 3D target positions from a constant
// velocity Kalman filter, for sequences that carry no external prediction.
package predict

import (
	"errors"
	"log/slog"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// ErrNotInitialized is returned by Predict before the first Update.
var ErrNotInitialized = errors.New("predictor has no measurement yet")

// Config holds the filter noise parameters.
type Config struct {
	ProcessNoise     float64 // acceleration variance (m²/s⁴)
	MeasurementNoise float64 // position variance (m²)
	InitialVariance  float64 // variance of the first state estimate
	FrameInterval    float64 // seconds between frames
}

// DefaultConfig returns filter settings suited to hand-held objects at 30 fps.
func DefaultConfig() Config {
	return Config{
		ProcessNoise:     1.0,
		MeasurementNoise: 1e-4,
		InitialVariance:  1.0,
		FrameInterval:    1.0 / 30,
	}
}

// Kalman tracks position and velocity along x, y and z. The state is
// [x y z vx vy vz].
type Kalman struct {
	cfg  Config
	x    *mat.VecDense
	p    *mat.Dense
	f    *mat.Dense
	q    *mat.Dense
	h    *mat.Dense
	r    *mat.Dense
	init bool
}

// NewKalman creates an uninitialised filter. The first Update sets the position.
func NewKalman(cfg Config) *Kalman {
	dt := cfg.FrameInterval
	f := mat.NewDense(6, 6, nil)
	for i := range 6 {
		f.Set(i, i, 1)
	}
	for i := range 3 {
		f.Set(i, i+3, dt)
	}

	// Discrete white-noise acceleration model.
	q := mat.NewDense(6, 6, nil)
	dt2, dt3, dt4 := dt*dt, dt*dt*dt, dt*dt*dt*dt
	for i := range 3 {
		q.Set(i, i, dt4/4*cfg.ProcessNoise)
		q.Set(i, i+3, dt3/2*cfg.ProcessNoise)
		q.Set(i+3, i, dt3/2*cfg.ProcessNoise)
		q.Set(i+3, i+3, dt2*cfg.ProcessNoise)
	}

	h := mat.NewDense(3, 6, nil)
	r := mat.NewDense(3, 3, nil)
	for i := range 3 {
		h.Set(i, i, 1)
		r.Set(i, i, cfg.MeasurementNoise)
	}

	return &Kalman{
		cfg: cfg,
		x:   mat.NewVecDense(6, nil),
		p:   mat.NewDense(6, 6, nil),
		f:   f,
		q:   q,
		h:   h,
		r:   r,
	}
}

// Predict advances the state one frame and returns the predicted position.
func (k *Kalman) Predict() (r3.Vector, error) {
	if !k.init {
		return r3.Vector{}, ErrNotInitialized
	}
	var fx mat.VecDense
	fx.MulVec(k.f, k.x)
	k.x.CopyVec(&fx)

	var fp, fpft mat.Dense
	fp.Mul(k.f, k.p)
	fpft.Mul(&fp, k.f.T())
	k.p.Add(&fpft, k.q)

	return k.Position(), nil
}

// Update corrects the state with a measured position.
func (k *Kalman) Update(z r3.Vector) {
	meas := mat.NewVecDense(3, []float64{z.X, z.Y, z.Z})
	if !k.init {
		k.x.SetVec(0, z.X)
		k.x.SetVec(1, z.Y)
		k.x.SetVec(2, z.Z)
		for i := range 6 {
			k.p.Set(i, i, k.cfg.InitialVariance)
		}
		k.init = true
		return
	}

	// y = z - Hx
	var hx, y mat.VecDense
	hx.MulVec(k.h, k.x)
	y.SubVec(meas, &hx)

	// S = HPHᵀ + R
	var hp, s mat.Dense
	hp.Mul(k.h, k.p)
	s.Mul(&hp, k.h.T())
	s.Add(&s, k.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		slog.Warn("Kalman innovation covariance not invertible, skipping update", "error", err)
		return
	}

	// K = PHᵀS⁻¹
	var pht, gain mat.Dense
	pht.Mul(k.p, k.h.T())
	gain.Mul(&pht, &sInv)

	var ky mat.VecDense
	ky.MulVec(&gain, &y)
	k.x.AddVec(k.x, &ky)

	// P = (I - KH)P
	var kh, ikh, p mat.Dense
	kh.Mul(&gain, k.h)
	ikh.Sub(eye(6), &kh)
	p.Mul(&ikh, k.p)
	k.p.Copy(&p)

	if n := mat.Norm(&y, 2); n > 3*math.Sqrt(mat.Trace(&s)) {
		slog.Debug("Kalman large residual", "residual", n)
	}
}

// Position returns the current position estimate.
func (k *Kalman) Position() r3.Vector {
	return r3.Vector{X: k.x.AtVec(0), Y: k.x.AtVec(1), Z: k.x.AtVec(2)}
}

// Velocity returns the current velocity estimate in metres per second.
func (k *Kalman) Velocity() r3.Vector {
	return r3.Vector{X: k.x.AtVec(3), Y: k.x.AtVec(4), Z: k.x.AtVec(5)}
}

func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := range n {
		m.Set(i, i, 1)
	}
	return m
}
