package api

// AssetLinkResponse связывает хост сайта с пакетом приложения
type AssetLinkResponse struct {
	Host        string `json:"host"`
	PackageName string `json:"package_name"`
}

// AssetLinksResponse полный список ассоциаций для autofill
type AssetLinksResponse struct {
	Links []AssetLinkResponse `json:"links"`
}
