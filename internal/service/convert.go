package service

import (
	"github.com/exo-explore/private-search/internal/matrix"
	"github.com/exo-explore/private-search/internal/simplepir"
)

func paramsToWire(p *simplepir.Params) ParamsWire {
	return ParamsWire{
		N:      p.N,
		M:      p.M,
		P:      p.P,
		StdDev: p.StdDev,
		A:      matrixToRows(p.A),
	}
}

func matrixToRows(m *matrix.Matrix) [][]uint64 {
	out := make([][]uint64, m.Rows())
	for i := range out {
		out[i] = m.Row(uint64(i))
	}
	return out
}
