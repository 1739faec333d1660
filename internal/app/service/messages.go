package service

// User-facing messages reported through the notification sink
const (
	msgLoginToAdd       = "Login to add an item to the Cart"
	msgLoginToUpdate    = "Login to update the Cart"
	msgDuplicateItem    = "Item already in cart. Use the cart sidebar to update quantity or remove item."
	msgUnknownProduct   = "Product doesn't exist"
	msgCartPostFailed   = "Could not post data in the cart. Check that the backend is running, reachable and returns valid JSON."
	msgCartFetchFailed  = "Could not fetch cart details. Check that the backend is running, reachable and returns valid JSON."
	msgNoProductsFound  = "No Products Found"
	msgStoreUnreachable = "Something went wrong. Check that the backend is running, reachable and returns valid JSON."
	msgUsernameRequired = "Username is a required field"
	msgPasswordRequired = "Password is a required field"
	msgLoggedIn         = "Logged in successfully"
	msgLoggedOut        = "Logged out"
)
