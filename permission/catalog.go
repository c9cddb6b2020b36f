package permission

// Permission codes issued by the Farm2Go management API.
const (
	ReadUser                 = "READ_USER"
	ManageRole               = "MANAGE_ROLE"
	ManagePermissions        = "MANAGE_PERMISSIONS"
	ManageProductType        = "MANAGE_PRODUCT_TYPE"
	ManageProducts           = "MANAGE_PRODUCTS"
	ManageAggregationCenters = "MANAGE_AGGREGATION_CENTERS"
	ManageFarmers            = "MANAGE_FARMERS"
	ManageLocations          = "MANAGE_LOCATIONS"
	ManageSmartContracts     = "MANAGE_SMART_CONTRACTS"
)

// Farm2GoCodes lists the application's permission codes in menu order.
func Farm2GoCodes() []string {
	return []string{
		ReadUser,
		ManageRole,
		ManagePermissions,
		ManageProductType,
		ManageProducts,
		ManageAggregationCenters,
		ManageFarmers,
		ManageLocations,
		ManageSmartContracts,
	}
}

// NewFarm2GoRegistry returns a frozen [Registry] holding [Farm2GoCodes]
// followed by any extra codes.
func NewFarm2GoRegistry(extra ...string) (*Registry, error) {
	r := NewRegistry()
	for _, c := range append(Farm2GoCodes(), extra...) {
		if _, err := r.Register(c); err != nil {
			return nil, err
		}
	}
	r.Freeze()
	return r, nil
}
