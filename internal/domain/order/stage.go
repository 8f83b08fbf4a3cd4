package order

// Stage is one discrete position in the order's linear fulfillment pipeline:
// creado -> corte -> acabados -> despacho -> cliente.
type Stage string

const (
	StageCreated   Stage = "creado"
	StageCorte     Stage = "corte"
	StageAcabados  Stage = "acabados"
	StageDespacho  Stage = "despacho"
	StageDelivered Stage = "cliente"
)

// next is the total transition function for the intermediate pipeline. The
// move out of StageDespacho is reserved for delivery and is deliberately
// absent here.
var next = map[Stage]Stage{
	StageCreated:  StageCorte,
	StageCorte:    StageAcabados,
	StageAcabados: StageDespacho,
}

// Next returns the stage that follows s in the pipeline. The second return is
// false for StageDespacho and StageDelivered, which only deliverToCustomer may
// move past.
func (s Stage) Next() (Stage, bool) {
	n, ok := next[s]
	return n, ok
}

// Terminal reports whether no further advanceOrder call is legal from s.
func (s Stage) Terminal() bool {
	_, ok := next[s]
	return !ok
}
