package services

// Services defined in this package:
// - AuthService: Handles authentication and user registration
// - CourseService: Handles course CRUD and renumbering entry point
// - BlockService: Handles block CRUD, assigning tracking IDs on creation
// - TrackingService: Owns tracking ID allocation and course renumbering
