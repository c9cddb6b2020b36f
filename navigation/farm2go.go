package navigation

import "github.com/farm2go/adminguard/permission"

// Farm2GoMenu returns the console's built-in menu. Each call returns a fresh tree.
func Farm2GoMenu() []Entry {
	return []Entry{
		{Kind: KindLink, Label: "Dashboard", Path: "/dashboard", Icon: "speedometer"},
		{Kind: KindTitle, Label: "Management"},
		{
			Kind:  KindGroup,
			Label: "Admin Tools",
			Icon:  "settings",
			Children: []Entry{
				{Kind: KindLink, Label: "Users", Path: "/management/users", Icon: "user", Permissions: []string{permission.ReadUser}},
				{Kind: KindLink, Label: "Roles", Path: "/management/roles", Icon: "settings", Permissions: []string{permission.ManageRole}},
				{Kind: KindLink, Label: "Permissions", Path: "/management/permissions", Icon: "lock-locked", Permissions: []string{permission.ManagePermissions}},
			},
		},
		{
			Kind:  KindGroup,
			Label: "Product Management",
			Icon:  "basket",
			Children: []Entry{
				{Kind: KindLink, Label: "Product Types", Path: "/management/product-types", Icon: "basket", Permissions: []string{permission.ManageProductType}},
				{Kind: KindLink, Label: "Products", Path: "/management/products", Icon: "basket", Permissions: []string{permission.ManageProducts}},
			},
		},
		{Kind: KindLink, Label: "Aggregation Centers", Path: "/management/aggregation-centers", Icon: "factory", Permissions: []string{permission.ManageAggregationCenters}},
		{Kind: KindLink, Label: "Farmers", Path: "/management/farmers", Icon: "handshake", Permissions: []string{permission.ManageFarmers}},
		{Kind: KindLink, Label: "Geo Locations", Path: "/management/geo-locations", Icon: "map", Permissions: []string{permission.ManageLocations}},
		{Kind: KindLink, Label: "Smart Contracts", Path: "/management/smart-contracts", Icon: "lock-locked", Permissions: []string{permission.ManageSmartContracts}},
	}
}
