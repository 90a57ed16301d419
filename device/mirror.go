package device

import (
	"fmt"
	"unsafe"

	"github.com/notargets/FDTDMaterial/grid"
	"github.com/notargets/FDTDMaterial/material"
	"github.com/notargets/gocca"
	"gonum.org/v1/gonum/floats"
)

const blockSize = 256

// E = inveps * (D - P), one cell per inner iteration
var updateEFromDSource = fmt.Sprintf(`
@kernel void updateEFromD(const long N,
                          const double *inveps,
                          const double *D,
                          const double *P,
                          double *E) {
	for (long b = 0; b < (N + %[1]d - 1) / %[1]d; ++b; @outer) {
		for (long t = 0; t < %[1]d; ++t; @inner) {
			const long i = b * %[1]d + t;
			if (i < N) {
				E[i] = inveps[i] * (D[i] - P[i]);
			}
		}
	}
}
`, blockSize)

const bytesPerFloat64 = 8

type key struct {
	chunk     int
	component grid.Component
}

// work holds the per-chunk field buffers used by the update kernel
type work struct {
	d, p, e *gocca.OCCAMemory
}

// Mirror keeps a device copy of the diagonal inverse permittivity of every
// chunk the local rank owns, and applies the E-from-D step on the device
type Mirror struct {
	Device *gocca.OCCADevice

	grid   *material.Grid
	invEps map[key]*gocca.OCCAMemory
	work   map[int]*work
	kernel *gocca.OCCAKernel
}

// NewMirror uploads the owned chunks of g and compiles the update kernel
func NewMirror(device *gocca.OCCADevice, g *material.Grid) (*Mirror, error) {
	m := &Mirror{
		Device: device,
		grid:   g,
		invEps: make(map[key]*gocca.OCCAMemory),
		work:   make(map[int]*work),
	}
	for _, ch := range g.Chunks {
		if !ch.IsMine() {
			continue
		}
		for _, c := range electric(ch) {
			inv := ch.InvEps[c][c.Direction()]
			m.invEps[key{ch.ID, c}] = device.Malloc(int64(len(inv)*bytesPerFloat64),
				unsafe.Pointer(&inv[0]), nil)
		}
	}

	var (
		kernel *gocca.OCCAKernel
		err    error
	)
	if device.Mode() == "OpenMP" {
		// OpenMP does not get -O3 by default
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = device.BuildKernelFromString(updateEFromDSource, "updateEFromD", props)
	} else {
		kernel, err = device.BuildKernelFromString(updateEFromDSource, "updateEFromD", nil)
	}
	if err != nil {
		m.Free()
		return nil, fmt.Errorf("failed to build kernel updateEFromD: %w", err)
	}
	m.kernel = kernel
	return m, nil
}

func electric(ch *material.Chunk) (comps []grid.Component) {
	if ch.Volume.NTot() == 0 {
		return
	}
	for _, c := range grid.Fields(ch.Volume.Dim) {
		if c.IsElectric() && ch.InvEps[c][c.Direction()] != nil {
			comps = append(comps, c)
		}
	}
	return
}

// Sync copies the host inverse permittivity of every owned chunk to the
// device again, after the material has been mixed or averaged
func (m *Mirror) Sync() {
	for k, mem := range m.invEps {
		inv := m.grid.Chunks[k.chunk].InvEps[k.component][k.component.Direction()]
		mem.CopyFrom(unsafe.Pointer(&inv[0]), int64(len(inv)*bytesPerFloat64))
	}
}

// InvEps returns the device copy of the inverse permittivity of component c
// in chunk id
func (m *Mirror) InvEps(id int, c grid.Component) ([]float64, error) {
	mem, ok := m.invEps[key{id, c}]
	if !ok {
		return nil, fmt.Errorf("chunk %d has no device data for %s", id, c)
	}
	out := make([]float64, m.grid.Chunks[id].Volume.NTot())
	mem.CopyTo(unsafe.Pointer(&out[0]), int64(len(out)*bytesPerFloat64))
	return out, nil
}

// UpdateEFromD computes E = inveps*(D-P) for component c of chunk id on the
// device. P may be nil for a non-dispersive material.
func (m *Mirror) UpdateEFromD(id int, c grid.Component, d, p, e []float64) error {
	inv, ok := m.invEps[key{id, c}]
	if !ok {
		return fmt.Errorf("chunk %d has no device data for %s", id, c)
	}
	n := m.grid.Chunks[id].Volume.NTot()
	if len(d) != n || len(e) != n || (p != nil && len(p) != n) {
		return fmt.Errorf("field arrays for chunk %d must hold %d cells", id, n)
	}
	if p == nil {
		p = make([]float64, n)
	}

	w := m.buffers(id, n)
	bytes := int64(n * bytesPerFloat64)
	w.d.CopyFrom(unsafe.Pointer(&d[0]), bytes)
	w.p.CopyFrom(unsafe.Pointer(&p[0]), bytes)

	if err := m.kernel.RunWithArgs(int64(n), inv, w.d, w.p, w.e); err != nil {
		return fmt.Errorf("kernel execution failed: %w", err)
	}
	m.Device.Finish()

	w.e.CopyTo(unsafe.Pointer(&e[0]), bytes)
	return nil
}

func (m *Mirror) buffers(id, n int) *work {
	if w, ok := m.work[id]; ok {
		return w
	}
	bytes := int64(n * bytesPerFloat64)
	w := &work{
		d: m.Device.Malloc(bytes, nil, nil),
		p: m.Device.Malloc(bytes, nil, nil),
		e: m.Device.Malloc(bytes, nil, nil),
	}
	m.work[id] = w
	return w
}

// Free releases the kernel and all device memory
func (m *Mirror) Free() {
	if m.kernel != nil {
		m.kernel.Free()
		m.kernel = nil
	}
	for k, mem := range m.invEps {
		mem.Free()
		delete(m.invEps, k)
	}
	for id, w := range m.work {
		w.d.Free()
		w.p.Free()
		w.e.Free()
		delete(m.work, id)
	}
}

// UpdateEFromD is the host version of the device step
func UpdateEFromD(inveps, d, p, e []float64) {
	if p == nil {
		copy(e, d)
	} else {
		floats.SubTo(e, d, p)
	}
	floats.Mul(e, inveps)
}
