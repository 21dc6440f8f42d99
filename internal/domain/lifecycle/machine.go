// Package lifecycle define la máquina de estados compartida por los cuatro tipos de documento.
// Cada tipo aporta su tabla de transiciones, el estado que toca el libro y su función de efectos.
package lifecycle

import (
	"fmt"
	"math"
	"sort"

	"github.com/jhoicas/Bodega-api/internal/domain"
	"github.com/jhoicas/Bodega-api/internal/domain/entity"
)

// Delta efecto de una línea sobre una clave del libro.
type Delta struct {
	Key           entity.InventoryKey
	Qty           int64
	Action        entity.MovementAction
	Journal       bool // genera movimiento en el diario
	RequireRecord bool // la fila debe existir previamente
}

// EffectsFunc calcula los deltas de un documento a partir de sus líneas.
type EffectsFunc func(doc *entity.Document, items []entity.DocumentItem) []Delta

// Machine máquina de estados de un tipo de documento.
type Machine struct {
	kind         entity.DocumentKind
	prefix       string
	successor    map[entity.DocumentStatus]entity.DocumentStatus
	ledgerStatus entity.DocumentStatus
	effects      EffectsFunc
}

var machines = map[entity.DocumentKind]*Machine{
	entity.KindInbound: {
		kind:         entity.KindInbound,
		prefix:       "IN",
		successor:    linear,
		ledgerStatus: entity.StatusExecuted,
		effects:      inboundEffects,
	},
	entity.KindOutbound: {
		kind:         entity.KindOutbound,
		prefix:       "OUT",
		successor:    linear,
		ledgerStatus: entity.StatusExecuted,
		effects:      outboundEffects,
	},
	entity.KindTransfer: {
		kind:         entity.KindTransfer,
		prefix:       "TRF",
		successor:    linear,
		ledgerStatus: entity.StatusExecuted,
		effects:      transferEffects,
	},
	entity.KindStocktaking: {
		kind:   entity.KindStocktaking,
		prefix: "STK",
		successor: map[entity.DocumentStatus]entity.DocumentStatus{
			entity.StatusCreated: entity.StatusConfirmed,
		},
		ledgerStatus: entity.StatusConfirmed,
		effects:      stocktakingEffects,
	},
}

var linear = map[entity.DocumentStatus]entity.DocumentStatus{
	entity.StatusCreated:  entity.StatusApproved,
	entity.StatusApproved: entity.StatusExecuted,
	entity.StatusExecuted: entity.StatusConfirmed,
}

// For devuelve la máquina del tipo indicado.
func For(kind entity.DocumentKind) (*Machine, error) {
	m, ok := machines[kind]
	if !ok {
		return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrInvalidInput, kind)
	}
	return m, nil
}

// Kind tipo de documento que gobierna la máquina.
func (m *Machine) Kind() entity.DocumentKind { return m.kind }

// Prefix prefijo de numeración del tipo.
func (m *Machine) Prefix() string { return m.prefix }

// Initial estado de un documento recién creado.
func (m *Machine) Initial() entity.DocumentStatus { return entity.StatusCreated }

// LedgerStatus estado cuya transición aplica los deltas al libro.
func (m *Machine) LedgerStatus() entity.DocumentStatus { return m.ledgerStatus }

// Next sucesor único de from; false si from es terminal o desconocido.
func (m *Machine) Next(from entity.DocumentStatus) (entity.DocumentStatus, bool) {
	to, ok := m.successor[from]
	return to, ok
}

// Validate comprueba que to sea el sucesor único de from.
func (m *Machine) Validate(from, to entity.DocumentStatus) error {
	if next, ok := m.successor[from]; ok && next == to {
		return nil
	}
	return &domain.IllegalTransitionError{Kind: string(m.kind), From: string(from), To: string(to)}
}

// TouchesLedger indica si llegar a to aplica efectos sobre el libro.
func (m *Machine) TouchesLedger(to entity.DocumentStatus) bool {
	return to == m.ledgerStatus
}

// Effects deltas del documento, en el orden de sus líneas.
func (m *Machine) Effects(doc *entity.Document, items []entity.DocumentItem) []Delta {
	return m.effects(doc, items)
}

func inboundEffects(doc *entity.Document, items []entity.DocumentItem) []Delta {
	out := make([]Delta, 0, len(items))
	for _, it := range items {
		out = append(out, Delta{
			Key:     entity.InventoryKey{ProductID: it.ProductID, WarehouseID: doc.WarehouseID},
			Qty:     it.Quantity,
			Action:  entity.MovementIn,
			Journal: true,
		})
	}
	return out
}

func outboundEffects(doc *entity.Document, items []entity.DocumentItem) []Delta {
	out := make([]Delta, 0, len(items))
	for _, it := range items {
		out = append(out, Delta{
			Key:           entity.InventoryKey{ProductID: it.ProductID, WarehouseID: doc.WarehouseID},
			Qty:           -it.Quantity,
			Action:        entity.MovementOut,
			Journal:       true,
			RequireRecord: true,
		})
	}
	return out
}

// El destino se crea si no existe; el diario solo registra el lado origen.
func transferEffects(doc *entity.Document, items []entity.DocumentItem) []Delta {
	out := make([]Delta, 0, 2*len(items))
	for _, it := range items {
		out = append(out,
			Delta{
				Key:           entity.InventoryKey{ProductID: it.ProductID, WarehouseID: doc.WarehouseID},
				Qty:           -it.Quantity,
				Action:        entity.MovementTransfer,
				Journal:       true,
				RequireRecord: true,
			},
			Delta{
				Key:    entity.InventoryKey{ProductID: it.ProductID, WarehouseID: doc.TargetWarehouseID},
				Qty:    it.Quantity,
				Action: entity.MovementTransfer,
			},
		)
	}
	return out
}

func stocktakingEffects(doc *entity.Document, items []entity.DocumentItem) []Delta {
	out := make([]Delta, 0, len(items))
	for _, it := range items {
		if it.DiffQty == 0 {
			continue
		}
		out = append(out, Delta{
			Key:     entity.InventoryKey{ProductID: it.ProductID, WarehouseID: doc.WarehouseID},
			Qty:     it.DiffQty,
			Action:  entity.MovementAdjust,
			Journal: true,
		})
	}
	return out
}

// KeyPlan efecto neto sobre una clave del libro.
type KeyPlan struct {
	Key           entity.InventoryKey
	Net           int64
	RequireRecord bool
}

// Plan agrega los deltas por clave y los ordena por clave ascendente.
// Ese orden es el orden global de bloqueo de filas, igual para toda transacción.
// Falla con ErrInvalidInput si el neto de una clave no cabe en int64.
func Plan(deltas []Delta) ([]KeyPlan, error) {
	idx := make(map[entity.InventoryKey]int, len(deltas))
	plans := make([]KeyPlan, 0, len(deltas))
	for _, d := range deltas {
		i, ok := idx[d.Key]
		if !ok {
			i = len(plans)
			idx[d.Key] = i
			plans = append(plans, KeyPlan{Key: d.Key})
		}
		net, ok := AddQty(plans[i].Net, d.Qty)
		if !ok {
			return nil, fmt.Errorf("%w: cantidad neta fuera de rango para %s en %s",
				domain.ErrInvalidInput, d.Key.ProductID, d.Key.WarehouseID)
		}
		plans[i].Net = net
		plans[i].RequireRecord = plans[i].RequireRecord || d.RequireRecord
	}
	sort.Slice(plans, func(a, b int) bool { return plans[a].Key.Less(plans[b].Key) })
	return plans, nil
}

// AddQty suma cantidades; false si el resultado desborda int64.
func AddQty(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
