package contentservice

import "github.com/calliope-press/inkstone/internal/common"

func validateArticle(v *common.Validator, title string, ownerID, siteID int) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 255), "title", "must not be longer than 255 characters")
	validateInt(v, ownerID, "owner_id")
	validateInt(v, siteID, "site_id")
}

func validateComment(v *common.Validator, body, author, authorIP string) {
	v.Check(body != "", "body", "must be provided")
	v.Check(author != "", "author", "must be provided")
	v.Check(authorIP != "", "author_ip", "must be provided")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be provided")
}
