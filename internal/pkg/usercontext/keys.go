package usercontext

// Locals key under which the request's UserContext is stored
const KeyUserContext = "USER_CONTEXT"
