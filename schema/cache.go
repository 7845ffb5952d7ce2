package schema

// FeeKey identifies a cached fee: fee endpoint + address the fee is quoted for.
func FeeKey(feeEndpoint, address string) string {
	return feeEndpoint + "/" + address
}
