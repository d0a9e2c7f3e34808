package sectionservice

import "github.com/calliope-press/inkstone/internal/common"

func validateSection(v *common.Validator, name string, siteID int) {
	v.Check(name != "", "name", "must be provided")
	v.Check(v.CheckStringLength(name, 1, 255), "name", "must not be longer than 255 characters")
	validateInt(v, siteID, "site_id")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be provided")
}
